package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/contracthub/engine/pkg/errors"
)

func TestParseFileRejectsBinary(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, []byte("junk")...)
	_, err := ParseFile(ole)
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeNotImplemented))

	zip := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("junk")...)
	_, err = ParseFile(zip)
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeNotImplemented))
}

func TestParseFileInvalidXML(t *testing.T) {
	_, err := ParseFile([]byte("<Project><Tasks>"))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestParseFileNoTasks(t *testing.T) {
	_, err := ParseFile([]byte(`<Project><Name>Empty</Name></Project>`))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestParseDate(t *testing.T) {
	require.NotNil(t, parseDate("2026-03-20T17:00:00"))
	require.NotNil(t, parseDate("2026-03-20"))
	require.Nil(t, parseDate(""))
	require.Nil(t, parseDate("next tuesday"))
}
