package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "STATUS;\r\n", Normalize("STATUS;"))
	assert.Equal(t, "STATUS;\r\n", Normalize("STATUS;\n"))
	assert.Equal(t, "STATUS;\r\n", Normalize("STATUS;\r\n"))
	assert.Equal(t, "scan\r\n", Normalize("scan\n"))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args []string
		want string
	}{
		{"no params", "status", nil, "STATUS;\r\n"},
		{"single param", "SYS_MODE", []string{"BLESCAN"}, "SYS_MODE:BLESCAN;\r\n"},
		{"defaults filled", "BLE_PARAMS", []string{"PASSIVE"}, "BLE_PARAMS:PASSIVE,100,50,FILTER,0;\r\n"},
		{"blank arg uses default", "RSSI_THRESHOLD", []string{" "}, "RSSI_THRESHOLD:-70;\r\n"},
		{"conn targets cleaned", "BLE_CONN", []string{"aa:bb , FTMS\ncc:dd,HRM;ee;"}, "BLE_CONN:aa:bb,FTMS;cc:dd,HRM;\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.cmd, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Build("SELF_DESTRUCT")
	assert.Error(t, err)

	_, err = Build("STATUS", "extra")
	assert.Error(t, err)
}

func TestConnTargets(t *testing.T) {
	assert.Equal(t, "aa,FTMS;bb,HRM", ConnTargets("aa,FTMS\r\n\r\nbb,HRM"))
	assert.Empty(t, ConnTargets("aa;;,HRM"))
}

func TestCatalogue(t *testing.T) {
	specs := Catalogue()
	require.NotEmpty(t, specs)
	specs[0].Name = "changed"

	spec, ok := Lookup("sys_mode")
	require.True(t, ok)
	assert.Equal(t, "SYS_MODE", spec.Name)
	assert.Contains(t, SysModes, "BLESCAN")
}
