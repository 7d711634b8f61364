package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachStatementEscapesQuotes(t *testing.T) {
	require.Equal(t,
		"ATTACH '/data/verdicts.sqlite' AS verdicts_db (TYPE sqlite, READ_ONLY);",
		attachStatement("/data/verdicts.sqlite"))
	require.Equal(t,
		"ATTACH '/data/o''brien''s scans.sqlite' AS verdicts_db (TYPE sqlite, READ_ONLY);",
		attachStatement("/data/o'brien's scans.sqlite"))
}
