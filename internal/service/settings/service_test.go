package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
	"github.com/msivakumar/duetrack/internal/storage/memory"
)

func TestRemoveStaffLeavesSnapshotsAlone(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()

	devi, err := svc.AddStaff(ctx, dues.ModuleCable, dues.StaffMember{Name: "Devi", Phone: "9000000001"})
	if err != nil {
		t.Fatalf("add staff: %v", err)
	}
	mani, err := svc.AddStaff(ctx, dues.ModuleCable, dues.StaffMember{Name: "Mani", Phone: "9000000002"})
	if err != nil {
		t.Fatalf("add staff: %v", err)
	}

	// A snapshot handed out before the removal must not change under the
	// caller's feet, even when it shares storage with the live settings.
	before, err := svc.Get(ctx, dues.ModuleCable)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := svc.RemoveStaff(ctx, dues.ModuleCable, devi.ID); err != nil {
		t.Fatalf("remove staff: %v", err)
	}
	if len(before.Staff) != 2 || before.Staff[0].ID != devi.ID || before.Staff[1].ID != mani.ID {
		t.Errorf("earlier snapshot mutated: %+v", before.Staff)
	}

	after, err := svc.Get(ctx, dues.ModuleCable)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(after.Staff) != 1 || after.Staff[0].ID != mani.ID {
		t.Errorf("staff after removal: %+v", after.Staff)
	}

	if err := svc.RemoveStaff(ctx, dues.ModuleCable, devi.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second removal: err = %v, want not found", err)
	}
}
