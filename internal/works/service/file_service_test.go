package service

import (
	"context"
	"errors"
	"testing"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/testutil"
)

func TestOnlyJEOpensFiles(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	var authz *AuthorizationError
	for _, actor := range []Principal{sde, xen, ceo, adm} {
		_, err := svc.File.Create(ctx, actor, &CreateFileRequest{NameOfWork: "Culvert repair"})
		if !errors.As(err, &authz) {
			t.Errorf("create as %s: got %v, want AuthorizationError", actor.Role, err)
		}
	}
	if _, err := svc.File.Create(ctx, je, &CreateFileRequest{NameOfWork: "Culvert repair"}); err != nil {
		t.Fatalf("create as JE: %v", err)
	}
}

func TestGetEmbedsWorkingSet(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE, Remarks: "for scrutiny"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	got, err := svc.File.Get(ctx, file.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Estimate == nil || got.Estimate.TotalAmount != 60 {
		t.Errorf("get did not embed the active estimate")
	}
	if len(got.Assets) != 1 {
		t.Errorf("get embedded %d assets, want 1", len(got.Assets))
	}
	if len(got.Movements) != 1 || got.Movements[0].Remarks != "for scrutiny" {
		t.Errorf("get did not embed the movement timeline")
	}
}

func TestMovementsCarryUserNames(t *testing.T) {
	db, svc := setupServices(t)
	ctx := context.Background()

	testutil.SeedUser(t, db, je.UserID, "R. Sharma", entity.RoleJE)
	testutil.SeedUser(t, db, sde.UserID, "S. Verma", entity.RoleSDE)

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, err := svc.Workflow.Return(ctx, sde, file.ID, "rates outdated"); err != nil {
		t.Fatalf("return: %v", err)
	}

	views, err := svc.File.Movements(ctx, file.ID)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("movement count = %d, want 2", len(views))
	}
	if views[0].FromUserName != "R. Sharma" {
		t.Errorf("movement[0] from_user_name = %q, want R. Sharma", views[0].FromUserName)
	}
	if views[1].FromUserName != "S. Verma" {
		t.Errorf("movement[1] from_user_name = %q, want S. Verma", views[1].FromUserName)
	}
}

func TestMetadataEditRules(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)

	// Creator edits while the file is editable.
	got, err := svc.File.UpdateMetadata(ctx, je, file.ID, &UpdateFileRequest{NameOfWork: "Corrected name of work"})
	if err != nil {
		t.Fatalf("creator edit: %v", err)
	}
	if got.NameOfWork != "Corrected name of work" {
		t.Errorf("edit not applied")
	}

	// A different user may not, even with the same role.
	var authz *AuthorizationError
	if _, err := svc.File.UpdateMetadata(ctx, je2, file.ID, &UpdateFileRequest{NameOfWork: "x"}); !errors.As(err, &authz) {
		t.Fatalf("non-creator edit: got %v, want AuthorizationError", err)
	}

	// After approval only an administrator may correct metadata.
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, _, err := svc.Workflow.Approve(ctx, ceo, file.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.File.UpdateMetadata(ctx, je, file.ID, &UpdateFileRequest{NameOfWork: "late"}); !errors.As(err, &authz) {
		t.Fatalf("creator edit after approval: got %v, want AuthorizationError", err)
	}
	if _, err := svc.File.UpdateMetadata(ctx, adm, file.ID, &UpdateFileRequest{TypeOfWork: "road-upgrade"}); err != nil {
		t.Fatalf("admin edit after approval: %v", err)
	}
}

func TestListMineFilter(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	newFile(t, svc, je)
	newFile(t, svc, je)
	f3, err := svc.File.Create(ctx, Principal{UserID: "je-900", Role: entity.RoleJE}, &CreateFileRequest{NameOfWork: "Other JE's work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.File.List(ctx, je, 1, 20, repository.FileFilters{}, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 3 {
		t.Errorf("total = %d, want 3", all.Total)
	}

	mine, err := svc.File.List(ctx, je, 1, 20, repository.FileFilters{}, true)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if mine.Total != 2 {
		t.Errorf("mine total = %d, want 2", mine.Total)
	}
	for _, f := range mine.Items {
		if f.ID == f3.ID {
			t.Errorf("mine listing leaked another user's file")
		}
	}
}
