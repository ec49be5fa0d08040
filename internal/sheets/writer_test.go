package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
)

func TestBuildRows(t *testing.T) {
	records := []model.AuditRecord{
		{
			Seq:      0,
			PrevHash: "",
			Hash:     "sha256:first",
			Verdict: model.Verdict{
				ClusterID:     "sha256:cluster",
				CanonicalHash: "sha256:form",
				Outcome:       model.OutcomeClear,
				Timestamp:     time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC),
			},
		},
		{
			Seq:      1,
			PrevHash: "sha256:first",
			Hash:     "sha256:second",
			Verdict: model.Verdict{
				ClusterID:      "sha256:cluster",
				CanonicalHash:  "sha256:form",
				Outcome:        model.OutcomeMatch,
				TopScore:       0.97,
				MatchedEntryID: "OFAC-001",
				Timestamp:      time.Date(2025, 3, 1, 12, 31, 0, 0, time.UTC),
			},
		},
	}

	rows := buildRows(records)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, reportHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "0", first[0])
	assert.Equal(t, "2025-03-01 12:30:45", first[1])
	assert.Equal(t, "CLEAR", first[4])
	assert.Equal(t, "", first[8], "genesis record has no previous hash")

	second := rows[2]
	assert.Equal(t, "1", second[0])
	assert.Equal(t, "MATCH", second[4])
	assert.Equal(t, 0.97, second[5])
	assert.Equal(t, "OFAC-001", second[6])
	assert.Equal(t, "sha256:first", second[8])
}

func TestBuildRowsEmpty(t *testing.T) {
	rows := buildRows(nil)
	require.Len(t, rows, 1)
	assert.Equal(t, reportHeader, rows[0])
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		ClientID:        "client-id",
		ClientSecret:    "client-secret",
		TokenFile:       "/tmp/token.json",
		SpreadsheetName: "Audit Report",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing client id", mutate: func(c *Config) { c.ClientID = "" }},
		{name: "missing client secret", mutate: func(c *Config) { c.ClientSecret = "" }},
		{name: "missing token file", mutate: func(c *Config) { c.TokenFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), common.ErrMissingConfig)
		})
	}
}
