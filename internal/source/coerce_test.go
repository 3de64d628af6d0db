package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medgraph/loader/internal/schema"
)

func TestCoerceTypes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		field   schema.Field
		want    any
		wantErr bool
	}{
		{"string", " hello ", schema.Field{Column: "c", Type: schema.TypeString}, "hello", false},
		{"int", "42", schema.Field{Column: "c", Type: schema.TypeInt}, int64(42), false},
		{"int float form", "42.0", schema.Field{Column: "c", Type: schema.TypeInt}, int64(42), false},
		{"int fractional", "42.5", schema.Field{Column: "c", Type: schema.TypeInt}, nil, true},
		{"float", "3.14", schema.Field{Column: "c", Type: schema.TypeFloat}, 3.14, false},
		{"bool true", "true", schema.Field{Column: "c", Type: schema.TypeBool}, true, false},
		{"bool numeric", "1.0", schema.Field{Column: "c", Type: schema.TypeBool}, true, false},
		{"bool zero", "0", schema.Field{Column: "c", Type: schema.TypeBool}, false, false},
		{"bool junk", "maybe", schema.Field{Column: "c", Type: schema.TypeBool}, nil, true},
		{"date", "2021-06-01", schema.Field{Column: "c", Type: schema.TypeDate}, "2021-06-01", false},
		{"date year only", "2021", schema.Field{Column: "c", Type: schema.TypeDate}, "2021", false},
		{"date junk", "June 2021x", schema.Field{Column: "c", Type: schema.TypeDate}, nil, true},
		{"id", "MESH:D001", schema.Field{Column: "c", Type: schema.TypeID}, "MESH:D001", false},
		{"id with space", "MESH D001", schema.Field{Column: "c", Type: schema.TypeID}, nil, true},
		{"null optional", "NULL", schema.Field{Column: "c", Type: schema.TypeInt}, nil, false},
		{"null required", "", schema.Field{Column: "c", Type: schema.TypeInt, Required: true}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.raw, tt.field)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
