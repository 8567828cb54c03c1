package ledger

import (
	"context"
	"testing"

	"github.com/zpgpf/gpf-ledger/internal/data/repos/testutil"
	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
)

func TestEmployeeRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEmployeeRepo(db, testutil.Logger(t))

	first, err := repo.Create(dbc, &types.Employee{GPFAccountNo: "GPF001", Name: "Ravi", Mandal: testutil.PtrString("Kurnool")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("Create: id not assigned")
	}
	second, err := repo.Create(dbc, &types.Employee{GPFAccountNo: "GPF002", Name: "Lakshmi", OpeningBalance: 2500})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	if _, err := repo.Create(dbc, &types.Employee{GPFAccountNo: "GPF003", Name: "Dup"}); err != nil {
		t.Fatalf("Create third: %v", err)
	}

	rows, err := repo.List(dbc)
	if err != nil || len(rows) != 3 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != first.ID || rows[1].ID != second.ID {
		t.Fatalf("List order: %d, %d", rows[0].ID, rows[1].ID)
	}
	if rows[1].OpeningBalance != 2500 || rows[0].Mandal == nil || *rows[0].Mandal != "Kurnool" {
		t.Fatalf("List fields not round-tripped: %+v %+v", rows[0], rows[1])
	}
	if rows[0].Designation != nil {
		t.Fatalf("absent designation should stay null")
	}

	if got, err := repo.GetByIDs(dbc, []int64{second.ID}); err != nil || len(got) != 1 || got[0].Name != "Lakshmi" {
		t.Fatalf("GetByIDs: err=%v got=%v", err, got)
	}
	if got, err := repo.GetByIDs(dbc, nil); err != nil || len(got) != 0 {
		t.Fatalf("GetByIDs empty: err=%v len=%d", err, len(got))
	}

	if ok, err := repo.Exists(dbc, first.ID); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Exists(dbc, 9999); err != nil || ok {
		t.Fatalf("Exists unknown: ok=%v err=%v", ok, err)
	}

	if n, err := repo.DeleteByIDs(dbc, []int64{first.ID}); err != nil || n != 1 {
		t.Fatalf("DeleteByIDs: n=%d err=%v", n, err)
	}
	if n, err := repo.DeleteByIDs(dbc, []int64{first.ID}); err != nil || n != 0 {
		t.Fatalf("DeleteByIDs again: n=%d err=%v", n, err)
	}
	if rows, err := repo.List(dbc); err != nil || len(rows) != 2 {
		t.Fatalf("List after delete: err=%v len=%d", err, len(rows))
	}
}

func TestEmployeeRepoDuplicateAccount(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEmployeeRepo(db, testutil.Logger(t))

	if _, err := repo.Create(dbctx.Context{Ctx: ctx}, &types.Employee{GPFAccountNo: "GPF010", Name: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbctx.Context{Ctx: ctx}, &types.Employee{GPFAccountNo: "GPF010", Name: "B"}); err == nil {
		t.Fatalf("expected unique violation on duplicate account number")
	}
}
