package load

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/party"
	"github.com/sells-group/partyload/internal/tabular"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testRun() party.RunContext {
	return party.NewRunContext(time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC))
}

func emailTable() *tabular.Table {
	return &tabular.Table{
		Dataset: party.Emails,
		Header:  []string{"partyidentifier", "emailaddress", "run_guid"},
		Records: [][]string{{"P1", "a@b.c", "r"}, {"", "d@e.f", "r"}, {"P3", "g@h.i", "r"}},
		Values:  [][]any{{"P1", "a@b.c", "r"}, {nil, "d@e.f", "r"}, {"P3", "g@h.i", "r"}},
	}
}
