package ledger

import (
	"context"
	"testing"

	"github.com/zpgpf/gpf-ledger/internal/data/repos/testutil"
	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
)

func TestTransactionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTransactionRepo(db, testutil.Logger(t))

	a := testutil.SeedEmployee(t, ctx, tx, "GPF100", "A")
	b := testutil.SeedEmployee(t, ctx, tx, "GPF101", "B")

	rows := []*types.Transaction{
		{EmployeeID: a.ID, Month: "Apr-2023", OB: testutil.PtrInt64(1000), Subscription: 500, CB: testutil.PtrInt64(1500)},
		{EmployeeID: a.ID, Month: "May-2023", Subscription: 500, Loan: 200},
		{EmployeeID: a.ID, Month: "Jun-2023", Recovery: 100},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.SeedTransaction(t, ctx, tx, b.ID, "Apr-2023", 300)

	got, err := repo.ListByEmployeeID(dbc, a.ID)
	if err != nil {
		t.Fatalf("ListByEmployeeID: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByEmployeeID: len=%d", len(got))
	}
	for i, want := range []string{"Apr-2023", "May-2023", "Jun-2023"} {
		if got[i].Month != want {
			t.Fatalf("order[%d]: got %q want %q", i, got[i].Month, want)
		}
	}
	if got[0].OB == nil || *got[0].OB != 1000 || got[0].CB == nil || *got[0].CB != 1500 {
		t.Fatalf("ob/cb not round-tripped: %+v", got[0])
	}
	if got[1].OB != nil || got[1].CB != nil {
		t.Fatalf("absent ob/cb should stay null: %+v", got[1])
	}
	if got[1].Loan != 200 || got[2].Recovery != 100 {
		t.Fatalf("amounts not round-tripped: %+v %+v", got[1], got[2])
	}

	if empty, err := repo.ListByEmployeeID(dbc, 9999); err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListByEmployeeID unknown: err=%v rows=%v", err, empty)
	}

	if n, err := repo.DeleteByEmployeeIDs(dbc, []int64{a.ID}); err != nil || n != 3 {
		t.Fatalf("DeleteByEmployeeIDs: n=%d err=%v", n, err)
	}
	if left, err := repo.ListByEmployeeID(dbc, b.ID); err != nil || len(left) != 1 {
		t.Fatalf("other employee touched: err=%v len=%d", err, len(left))
	}
}

func TestTransactionRepoRejectsUnknownEmployee(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTransactionRepo(db, testutil.Logger(t))

	_, err := repo.Create(dbctx.Context{Ctx: context.Background()}, []*types.Transaction{
		{EmployeeID: 424242, Month: "Apr-2023"},
	})
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}
