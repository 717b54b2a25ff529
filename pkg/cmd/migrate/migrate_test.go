package migrate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPrepareURLForDB(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "postgresql://u:p@db/rp", "postgresql://u:p@db/rp?sslmode=disable"},
		{"with params", "postgresql://u:p@db/rp?connect_timeout=5",
			"postgresql://u:p@db/rp?connect_timeout=5&sslmode=disable"},
		{"keeps sslmode", "postgresql://u:p@db/rp?sslmode=require",
			"postgresql://u:p@db/rp?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, prepareURLForDB(tt.url), tt.want)
		})
	}
}
