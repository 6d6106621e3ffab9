package repository

import (
	"strings"
	"testing"
)

func TestListRulesQueryOrder(t *testing.T) {
	if !strings.HasSuffix(listRulesQuery, "ORDER BY priority DESC, created_at ASC, id ASC") {
		t.Fatalf("rules must be listed in evaluation order: %s", listRulesQuery)
	}
}

func TestWriteQueriesReturnFullRow(t *testing.T) {
	for name, query := range map[string]string{"insert": insertRuleQuery, "update": updateRuleQuery} {
		if !strings.Contains(query, "RETURNING "+ruleColumns) {
			t.Fatalf("%s must return every scanned column: %s", name, query)
		}
	}
	if strings.Contains(updateRuleQuery, "created_at =") {
		t.Fatal("update must keep the creation timestamp used for tie-breaking")
	}
}
