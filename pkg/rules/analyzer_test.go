package rules

import (
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Detection(t *testing.T) {
	cfg := config.ExportConf{
		Filter: "attr.status == ",
		Transformations: []config.TransformationRule{
			{Name: "t1", Condition: "true", Value: "10 *", Target: "attrs.x"},
			{Name: "t2", Condition: "true", Value: "'ok'", Target: "x"},
			{Name: "t3", Condition: "has(attr.y)", Value: "'a'", ElseValue: "'b'", Target: "vars.y"},
		},
		Metrics: []config.MetricRegistrationRule{
			{MetricID: "m", Value: "1", Tags: map[string]string{"domain": "domain +"}},
		},
	}

	report, err := Analyze(cfg)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.Len(t, report.Errors, 3)
	assert.Contains(t, report.Errors[0], "Export.Filter")
	assert.Contains(t, report.Errors[1], "Export.Transform[t1].Value")
	assert.Contains(t, report.Errors[2], "Export.Metric[m].Tag[domain]")

	require.Len(t, report.Warnings, 3)
	assert.Equal(t, "Export.Filter definido sem sink", report.Warnings[0])
	assert.Contains(t, report.Warnings[1], "sobrescreve sempre o atributo 'x' de 't1'")
	assert.Contains(t, report.Warnings[2], "'vars.y'")
}

func TestAnalyze_Valid(t *testing.T) {
	report, err := Analyze(config.ExportConf{
		Sink:   "sqs",
		Filter: `attr.status == "open"`,
		Transformations: []config.TransformationRule{
			{Name: "up", Condition: `attr.status == "open"`, Value: "'OPEN'", Target: "status"},
		},
	})
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}
