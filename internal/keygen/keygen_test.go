package keygen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartstream-data/refinery/internal/envelope"
)

func TestGenerate_Idempotent(t *testing.T) {
	route := envelope.Route{Domain: "finance", Table: "transactions"}

	first := Generate("data/trusted/", "data/raw/", "data/raw/finance/transactions/2024/f1.json", route)
	second := Generate("data/trusted/", "data/raw/", "data/raw/finance/transactions/2024/f1.json", route)

	assert.Equal(t, first, second)
	assert.Equal(t, "data/trusted/finance/transactions/finance/transactions/2024/f1.json", first)
}

func TestGenerate_StripsCompressionSuffix(t *testing.T) {
	route := envelope.Route{Domain: "hr", Table: "employees"}

	key := Generate("data/trusted/", "data/raw/", "data/raw/load1.json.gz", route)

	assert.Equal(t, "data/trusted/hr/employees/load1.json", key)
}

func TestGenerate_EnforcesJSONSuffix(t *testing.T) {
	route := envelope.Route{Domain: "hr", Table: "employees"}

	key := Generate("data/trusted/", "data/raw/", "data/raw/load1.txt", route)

	assert.Equal(t, "data/trusted/hr/employees/load1.txt.json", key)
}

func TestGenerate_DistinctRoutesNeverCollide(t *testing.T) {
	src := "data/raw/mixed/batch7.json"

	a := Generate("data/trusted/", "data/raw/", src, envelope.Route{Domain: "finance", Table: "transactions"})
	b := Generate("data/trusted/", "data/raw/", src, envelope.Route{Domain: "finance", Table: "accounts"})
	c := Generate("data/trusted/", "data/raw/", src, envelope.Route{Domain: "hr", Table: "employees"})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestGenerate_KeyOutsideRawRootKeptRelative(t *testing.T) {
	route := envelope.Route{Domain: "legacy", Table: "records"}

	key := Generate("data/trusted/", "data/raw/", "elsewhere/file.json", route)

	assert.Equal(t, "data/trusted/legacy/records/elsewhere/file.json", key)
}
