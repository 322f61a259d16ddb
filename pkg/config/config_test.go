package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAudit/internal/domain/models"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, "finaudit.evaluations", c.Kafka.Topics.Evaluations)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.True(t, c.Anomaly.ExpenseRatioThreshold.Equal(decimal.RequireFromString("0.85")))
	assert.True(t, c.Tax.VATRate.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, c.Tax.InputCreditFactor.Equal(decimal.RequireFromString("0.6")))
	assert.Empty(t, c.Tax.Categories)
}

func TestParseTaxTables(t *testing.T) {
	doc := `
environment: test
tax:
  vat_rate: "0.10"
  categories:
    - { name: Salary, rate: "0.10", section: "52", description: TDS on Salary }
  checklist:
    - { id: 1, requirement: "VAT Return", deadline: "15th", due_date: 2026-02-15T00:00:00Z, status: attention }
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.True(t, c.Tax.VATRate.Equal(decimal.RequireFromString("0.10")))
	require.Len(t, c.Tax.Categories, 1)
	assert.Equal(t, "Salary", c.Tax.Categories[0].Name)
	assert.True(t, c.Tax.Categories[0].Rate.Equal(decimal.RequireFromString("0.1")))
	require.Len(t, c.Tax.Checklist, 1)
	assert.Equal(t, models.ComplianceAttention, c.Tax.Checklist[0].Status)
	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), c.Tax.Checklist[0].DueDate.UTC())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"kafka without brokers": "environment: test\nkafka:\n  enabled: true\n",
		"unknown status":        "environment: test\ntax:\n  checklist:\n    - { id: 1, status: late }\n",
		"duplicate category":    "environment: test\ntax:\n  categories:\n    - { name: Rent, rate: \"0.05\" }\n    - { name: rent, rate: \"0.05\" }\n",
		"negative rate":         "environment: test\ntax:\n  vat_rate: \"-0.1\"\n",
		"empty environment":     "environment: \"\"\n",
		"schedule without url":  "environment: test\nreporting:\n  schedule: \"@hourly\"\n",
		"unknown period":        "environment: test\nreporting:\n  period: qtd\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{
		"KAFKA_BROKERS":      "k1:9092,k2:9092",
		"HTTP_PORT":          "9090",
		"REPORTING_BASE_URL": "http://reporting",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "http://reporting", c.Reporting.BaseURL)
	assert.NoError(t, c.Validate())
}

func TestLoadShippedConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("config file not present")
	}
	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Tax.Categories, 8)
	assert.Len(t, c.Tax.Checklist, 8)
}
