package service

import (
	"context"
	"errors"
	"testing"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupServices(t *testing.T) (*gorm.DB, *Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, NewServices(db, zap.NewNop(), repos, nil, nil, "")
}

var (
	je  = Principal{UserID: "je-001", Role: entity.RoleJE}
	je2 = Principal{UserID: "je-002", Role: entity.RoleJE}
	sde = Principal{UserID: "sde-001", Role: entity.RoleSDE}
	xen = Principal{UserID: "xen-001", Role: entity.RoleXEN}
	ceo = Principal{UserID: "ceo-001", Role: entity.RoleCEO}
	adm = Principal{UserID: "adm-001", Role: entity.RoleAdmin}
)

func newFile(t *testing.T, svc *Services, actor Principal) *entity.File {
	t.Helper()
	file, err := svc.File.Create(context.Background(), actor, &CreateFileRequest{
		NameOfWork:      "Construction of link road, Ward 12",
		TypeOfWork:      "road",
		WorkCategory:    "CONSTRUCTION",
		ProjectCategory: "ROAD",
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	return file
}

func ptr(v float64) *float64 { return &v }

func fillFile(t *testing.T, svc *Services, actor Principal, fileID string) {
	t.Helper()
	_, err := svc.Estimate.Save(context.Background(), actor, fileID, &SaveEstimateRequest{
		Items: []EstimateItemInput{
			{Description: "Earthwork in excavation", Quantity: 100, Unit: "cum", Rate: 0.4},
			{Description: "WBM grade II", Quantity: 50, Unit: "sqm", Rate: 0.4},
		},
	})
	if err != nil {
		t.Fatalf("save estimate: %v", err)
	}
	_, err = svc.Asset.Replace(context.Background(), actor, fileID, &ReplaceAssetsRequest{
		Assets: []AssetInput{
			{
				StartLatitude: ptr(30.7333), StartLongitude: ptr(76.7794),
				EndLatitude: ptr(30.7350), EndLongitude: ptr(76.7810),
				Description: "Link road segment A",
			},
		},
	})
	if err != nil {
		t.Fatalf("replace assets: %v", err)
	}
}

func TestFileLifecycleApproval(t *testing.T) {
	db, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	if file.Status != entity.FileStatusPending {
		t.Fatalf("new file status = %s, want PENDING", file.Status)
	}
	if file.CurrentHolderID == nil || *file.CurrentHolderID != je.UserID {
		t.Fatalf("new file should sit in the creator's inbox")
	}

	fillFile(t, svc, je, file.ID)

	// JE -> SDE pool
	f, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE, Remarks: "for scrutiny"})
	if err != nil {
		t.Fatalf("forward to SDE: %v", err)
	}
	if f.CurrentHolderRole != entity.RoleSDE || f.CurrentHolderID != nil {
		t.Fatalf("after forward holder = %s/%v, want SDE pool", f.CurrentHolderRole, f.CurrentHolderID)
	}

	// Any SDE may act on a pool-held file.
	f, err = svc.Workflow.Forward(ctx, sde, file.ID, &TransitionRequest{ToRole: entity.RoleCEO})
	if err != nil {
		t.Fatalf("forward to CEO: %v", err)
	}

	approved, project, err := svc.Workflow.Approve(ctx, ceo, file.ID, "sanctioned")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != entity.FileStatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}
	if approved.CurrentHolderRole != "" || approved.CurrentHolderID != nil {
		t.Errorf("approved file should have no holder")
	}
	if approved.ProjectID == nil || *approved.ProjectID != project.ID {
		t.Errorf("approved file should reference its project")
	}
	if project.ApprovedBudget != 60 {
		t.Errorf("approved budget = %v, want 60", project.ApprovedBudget)
	}
	if project.ApprovedBy != ceo.UserID {
		t.Errorf("approved_by = %s, want %s", project.ApprovedBy, ceo.UserID)
	}
	if len(project.Assets) != 1 {
		t.Fatalf("project assets = %d, want 1", len(project.Assets))
	}
	if project.Assets[0].StartLatitude != 30.7333 {
		t.Errorf("project asset coordinates not copied")
	}

	// Chain of custody, oldest first.
	var logs []entity.MovementLog
	if err := db.Where("file_id = ?", file.ID).Order("created_at ASC").Find(&logs).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	wantActions := []string{entity.MovementForward, entity.MovementForward, entity.MovementApprove}
	if len(logs) != len(wantActions) {
		t.Fatalf("movement count = %d, want %d", len(logs), len(wantActions))
	}
	for i, want := range wantActions {
		if logs[i].Action != want {
			t.Errorf("movement[%d] = %s, want %s", i, logs[i].Action, want)
		}
	}
	if logs[0].ToRole != entity.RoleSDE || logs[1].ToRole != entity.RoleCEO {
		t.Errorf("movement targets wrong: %s, %s", logs[0].ToRole, logs[1].ToRole)
	}
}

func TestForwardGates(t *testing.T) {
	db, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)

	// No estimate yet.
	_, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE})
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("forward without estimate: got %v, want PreconditionError", err)
	}

	// Estimate saved, still no assets.
	_, err = svc.Estimate.Save(ctx, je, file.ID, &SaveEstimateRequest{
		Items: []EstimateItemInput{{Description: "Earthwork", Quantity: 10, Unit: "cum", Rate: 5}},
	})
	if err != nil {
		t.Fatalf("save estimate: %v", err)
	}
	_, err = svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE})
	if !errors.As(err, &pre) {
		t.Fatalf("forward without assets: got %v, want PreconditionError", err)
	}

	// Failed attempts must leave no trace in the log.
	var n int64
	db.Model(&entity.MovementLog{}).Where("file_id = ?", file.ID).Count(&n)
	if n != 0 {
		t.Errorf("failed forwards appended %d movement rows", n)
	}
}

func TestForwardTargetValidation(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)

	var val *ValidationError
	_, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: "COMMISSIONER"})
	if !errors.As(err, &val) {
		t.Fatalf("unknown to_role: got %v, want ValidationError", err)
	}
	_, err = svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleAdmin})
	if !errors.As(err, &val) {
		t.Fatalf("ADMIN as to_role: got %v, want ValidationError", err)
	}
}

func TestHolderAuthorization(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)

	// Another JE cannot act while the file sits in the creator's inbox.
	var authz *AuthorizationError
	_, err := svc.Workflow.Forward(ctx, je2, file.ID, &TransitionRequest{ToRole: entity.RoleSDE})
	if !errors.As(err, &authz) {
		t.Fatalf("non-holder JE forward: got %v, want AuthorizationError", err)
	}

	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE}); err != nil {
		t.Fatalf("holder forward: %v", err)
	}

	// File now sits in the SDE pool; a JE is no longer the holder.
	_, err = svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleXEN})
	if !errors.As(err, &authz) {
		t.Fatalf("JE acting on SDE-held file: got %v, want AuthorizationError", err)
	}
}

func TestApproveRequiresApprovalRole(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleXEN}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	var authz *AuthorizationError
	_, _, err := svc.Workflow.Approve(ctx, xen, file.ID, "")
	if !errors.As(err, &authz) {
		t.Fatalf("XEN approve: got %v, want AuthorizationError", err)
	}
	if _, err := svc.Workflow.Reject(ctx, xen, file.ID, ""); !errors.As(err, &authz) {
		t.Fatalf("XEN reject: got %v, want AuthorizationError", err)
	}
}

func TestApproveRequiresCategories(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file, err := svc.File.Create(ctx, je, &CreateFileRequest{NameOfWork: "Drain repair, Sector 9"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	var val *ValidationError
	_, _, err = svc.Workflow.Approve(ctx, ceo, file.ID, "")
	if !errors.As(err, &val) {
		t.Fatalf("approve without categories: got %v, want ValidationError", err)
	}
}

func TestTerminalStatesConflict(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, _, err := svc.Workflow.Approve(ctx, ceo, file.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var conflict *ConflictError
	if _, _, err := svc.Workflow.Approve(ctx, ceo, file.ID, ""); !errors.As(err, &conflict) {
		t.Fatalf("double approve: got %v, want ConflictError", err)
	}
	if _, err := svc.Workflow.Forward(ctx, ceo, file.ID, &TransitionRequest{ToRole: entity.RoleJE}); !errors.As(err, &conflict) {
		t.Fatalf("forward after approve: got %v, want ConflictError", err)
	}
	if _, err := svc.Workflow.Return(ctx, ceo, file.ID, ""); !errors.As(err, &conflict) {
		t.Fatalf("return after approve: got %v, want ConflictError", err)
	}
}

func TestReturnSkipsGatesAndRoutesToJEPool(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleSDE}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	f, err := svc.Workflow.Return(ctx, sde, file.ID, "estimate rates outdated")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if f.Status != entity.FileStatusReturned {
		t.Errorf("status = %s, want RETURNED", f.Status)
	}
	if f.CurrentHolderRole != entity.RoleJE || f.CurrentHolderID != nil {
		t.Errorf("returned file should sit in the JE pool")
	}

	// A returned file is editable and can be re-forwarded by any JE.
	if _, err := svc.Estimate.Save(ctx, je2, file.ID, &SaveEstimateRequest{
		Items: []EstimateItemInput{{Description: "Revised earthwork", Quantity: 10, Unit: "cum", Rate: 7}},
	}); err != nil {
		t.Fatalf("edit returned file: %v", err)
	}
	if _, err := svc.Workflow.Forward(ctx, je2, file.ID, &TransitionRequest{ToRole: entity.RoleSDE}); err != nil {
		t.Fatalf("re-forward returned file: %v", err)
	}
}

func TestRejectIsTerminalForRouting(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	f, err := svc.Workflow.Reject(ctx, ceo, file.ID, "not sanctioned this year")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if f.Status != entity.FileStatusRejected {
		t.Errorf("status = %s, want REJECTED", f.Status)
	}

	var conflict *ConflictError
	if _, err := svc.Workflow.Forward(ctx, ceo, file.ID, &TransitionRequest{ToRole: entity.RoleJE}); !errors.As(err, &conflict) {
		t.Fatalf("forward after reject: got %v, want ConflictError", err)
	}

	// Rejected files remain deletable by an administrator.
	if err := svc.File.Delete(ctx, adm, file.ID); err != nil {
		t.Fatalf("delete rejected file: %v", err)
	}
}

type failingMaterializer struct{}

func (failingMaterializer) Materialize(ctx context.Context, tx *gorm.DB, file *entity.File, est *entity.Estimate, assets []entity.FileAsset, actor Principal) (*entity.Project, error) {
	return nil, errors.New("simulated materializer failure")
}

func TestApproveRollsBackWhenMaterializationFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewServices(db, zap.NewNop(), repos, nil, nil, "")
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	broken := NewWorkflowService(db, zap.NewNop(), repos, failingMaterializer{})
	if _, _, err := broken.Approve(ctx, ceo, file.ID, ""); err == nil {
		t.Fatal("approve with failing materializer should error")
	}

	// Nothing about the approval may survive the rollback.
	reloaded, err := repos.File.FindByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("reload file: %v", err)
	}
	if reloaded.Status != entity.FileStatusPending {
		t.Errorf("status = %s, want PENDING after rollback", reloaded.Status)
	}
	if reloaded.ProjectID != nil {
		t.Errorf("rolled-back approval left a project reference")
	}
	var n int64
	db.Model(&entity.MovementLog{}).Where("file_id = ? AND action = ?", file.ID, entity.MovementApprove).Count(&n)
	if n != 0 {
		t.Errorf("rolled-back approval appended %d APPROVE rows", n)
	}
	db.Model(&entity.Project{}).Where("file_id = ?", file.ID).Count(&n)
	if n != 0 {
		t.Errorf("rolled-back approval left %d project rows", n)
	}
}

func TestApprovedFileCannotBeDeleted(t *testing.T) {
	db, svc := setupServices(t)
	ctx := context.Background()

	file := newFile(t, svc, je)
	fillFile(t, svc, je, file.ID)
	if _, err := svc.Workflow.Forward(ctx, je, file.ID, &TransitionRequest{ToRole: entity.RoleCEO}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, _, err := svc.Workflow.Approve(ctx, ceo, file.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var pre *PreconditionError
	if err := svc.File.Delete(ctx, adm, file.ID); !errors.As(err, &pre) {
		t.Fatalf("delete approved file: got %v, want PreconditionError", err)
	}

	var authz *AuthorizationError
	pending := newFile(t, svc, je)
	if err := svc.File.Delete(ctx, ceo, pending.ID); !errors.As(err, &authz) {
		t.Fatalf("non-admin delete: got %v, want AuthorizationError", err)
	}
	if err := svc.File.Delete(ctx, adm, pending.ID); err != nil {
		t.Fatalf("admin delete pending file: %v", err)
	}
	var n int64
	db.Model(&entity.File{}).Where("id = ?", pending.ID).Count(&n)
	if n != 0 {
		t.Errorf("deleted file still present")
	}
}
