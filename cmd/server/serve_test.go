package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeMigratesByDefault(t *testing.T) {
	autoMigrate, err := serveCMD.Flags().GetBool("auto-migrate")
	require.NoError(t, err)
	require.True(t, autoMigrate)

	cmd, _, err := rootCMD.Find([]string{"serve"})
	require.NoError(t, err)
	require.Equal(t, serveCMD, cmd)

	cmd, _, err = rootCMD.Find([]string{"migrate"})
	require.NoError(t, err)
	require.Equal(t, migrateCMD, cmd)
}
