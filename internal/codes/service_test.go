package codes

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/repository"
)

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID string) (models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return models.User{}, faults.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, errors.New("not used")
}
func (f *fakeUserRepo) GetUserByEmail(context.Context, string) (models.User, error) {
	return models.User{}, faults.ErrNotFound
}
func (f *fakeUserRepo) AuthenticateUser(context.Context, string, string) (models.User, error) {
	return models.User{}, errors.New("not used")
}
func (f *fakeUserRepo) ListUsers(context.Context, repository.UserFilters) ([]models.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) CohortSummary(context.Context, string, string) (models.CohortSummary, error) {
	return models.CohortSummary{}, nil
}
func (f *fakeUserRepo) FindCodeRecipient(context.Context, string, string) (models.User, error) {
	return models.User{}, faults.ErrNotFound
}
func (f *fakeUserRepo) SetAmbassador(context.Context, string, bool, int) (models.User, error) {
	return models.User{}, errors.New("not used")
}
func (f *fakeUserRepo) SetCodeLimit(context.Context, string, int) (models.User, error) {
	return models.User{}, errors.New("not used")
}
func (f *fakeUserRepo) DeactivateUser(context.Context, string) error { return nil }
func (f *fakeUserRepo) Stats(context.Context) (models.UserStats, error) {
	return models.UserStats{}, nil
}

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]models.InvitationCode
	seq   int
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: make(map[string]models.InvitationCode)}
}

func (f *fakeCodeRepo) CreateCode(_ context.Context, code models.InvitationCode) (models.InvitationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if code.ID == "" {
		code.ID = "code-" + strconv.Itoa(f.seq)
	}
	f.codes[code.ID] = code
	return code, nil
}

func (f *fakeCodeRepo) GetCodeByToken(_ context.Context, token string) (models.InvitationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range f.codes {
		if code.Code == token {
			return code, nil
		}
	}
	return models.InvitationCode{}, faults.ErrNotFound
}

// CreateCodeForIssuer holds the lock across the count and the insert, the
// same all-or-nothing shape as the SQL implementation.
func (f *fakeCodeRepo) CreateCodeForIssuer(_ context.Context, code models.InvitationCode, maxCodes int) (models.InvitationCode, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issued := 0
	for _, existing := range f.codes {
		if existing.CreatedByID != nil && *existing.CreatedByID == *code.CreatedByID {
			issued++
		}
	}
	if issued >= maxCodes {
		return models.InvitationCode{}, issued, faults.ErrQuotaExceeded
	}
	f.seq++
	if code.ID == "" {
		code.ID = "code-" + strconv.Itoa(f.seq)
	}
	f.codes[code.ID] = code
	return code, issued + 1, nil
}

func (f *fakeCodeRepo) ListCodesByIssuer(_ context.Context, userID string) ([]models.InvitationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InvitationCode
	for _, code := range f.codes {
		if code.CreatedByID != nil && *code.CreatedByID == userID {
			out = append(out, code)
		}
	}
	return out, nil
}

func (f *fakeCodeRepo) DeactivateCode(_ context.Context, codeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[codeID]
	if !ok || !code.IsActive {
		return faults.ErrNotFound
	}
	code.IsActive = false
	f.codes[codeID] = code
	return nil
}

// RedeemForUser mirrors the conditional-increment semantics of the SQL
// implementation: the counter only moves while below max_uses.
func (f *fakeCodeRepo) RedeemForUser(_ context.Context, codeID string, user models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[codeID]
	if !ok || !code.IsActive || code.CurrentUses >= code.MaxUses {
		return models.User{}, faults.ErrQuotaExhausted
	}
	code.CurrentUses++
	f.codes[codeID] = code
	if user.ID == "" {
		user.ID = "user-" + code.ID
	}
	return user, nil
}

func (f *fakeCodeRepo) Stats(context.Context) (models.CodeStats, error) {
	return models.CodeStats{}, nil
}

func newTestService(users *fakeUserRepo, codeRepo *fakeCodeRepo) *Service {
	return NewService(users, codeRepo, zerolog.Nop())
}

func TestIssueBindsActorCohort(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{
		"alice": {ID: "alice", Role: models.RoleMember, MaxCodesAllowed: 3, SchoolID: "school-1", EntryYear: "2015"},
	}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	issued, err := service.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(issued.Code.Code, "USER-") {
		t.Errorf("issued token %q missing USER- prefix", issued.Code.Code)
	}
	if issued.Code.Scope.Universal {
		t.Error("member-issued code should not be universal")
	}
	if issued.Code.Scope.SchoolID != "school-1" || issued.Code.Scope.EntryYear != "2015" {
		t.Errorf("code scope = %+v, want actor's cohort", issued.Code.Scope)
	}
	if issued.Code.MaxUses != DefaultMaxUses {
		t.Errorf("MaxUses = %d, want %d", issued.Code.MaxUses, DefaultMaxUses)
	}
	if issued.CodesRemaining != 2 {
		t.Errorf("CodesRemaining = %d, want 2", issued.CodesRemaining)
	}
}

func TestIssueEnforcesQuota(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{
		"alice": {ID: "alice", Role: models.RoleMember, MaxCodesAllowed: 3},
	}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	for i := 0; i < 3; i++ {
		if _, err := service.Issue(context.Background(), "alice"); err != nil {
			t.Fatalf("Issue %d: %v", i+1, err)
		}
	}

	_, err := service.Issue(context.Background(), "alice")
	if !errors.Is(err, faults.ErrQuotaExceeded) {
		t.Fatalf("fourth issue: got %v, want ErrQuotaExceeded", err)
	}
}

func TestIssueAmbassadorQuota(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{
		"amb": {ID: "amb", Role: models.RoleMember, IsAmbassador: true, MaxCodesAllowed: 20},
	}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	for i := 0; i < 20; i++ {
		if _, err := service.Issue(context.Background(), "amb"); err != nil {
			t.Fatalf("Issue %d: %v", i+1, err)
		}
	}
	if _, err := service.Issue(context.Background(), "amb"); !errors.Is(err, faults.ErrQuotaExceeded) {
		t.Fatalf("issue past ambassador quota: got %v, want ErrQuotaExceeded", err)
	}
}

func TestIssueConcurrentStaysWithinQuota(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{
		"alice": {ID: "alice", Role: models.RoleMember, MaxCodesAllowed: 3, SchoolID: "school-1", EntryYear: "2015"},
	}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	const attempts = 12
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Issue(context.Background(), "alice")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, faults.ErrQuotaExceeded):
			rejected++
		default:
			t.Fatalf("unexpected issue error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Fatalf("succeeded = %d, want exactly the allowance of 3", succeeded)
	}
	if rejected != attempts-3 {
		t.Errorf("rejected = %d, want %d", rejected, attempts-3)
	}

	stored, err := codeRepo.ListCodesByIssuer(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListCodesByIssuer: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored codes = %d, want 3", len(stored))
	}
}

func TestIssueAdminBypassesQuota(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{
		"root": {ID: "root", Role: models.RoleAdmin, MaxCodesAllowed: models.AdminCodeAllowance},
	}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	for i := 0; i < 30; i++ {
		if _, err := service.Issue(context.Background(), "root"); err != nil {
			t.Fatalf("admin issue %d: %v", i+1, err)
		}
	}
}

func TestVerifyTokenUnknownIsRejection(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	outcome, err := service.VerifyToken(context.Background(), "USER-NOPE99", models.CohortScope("school-1", "2015"))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if outcome.Accepted || outcome.Reason != ReasonNotFound {
		t.Errorf("outcome = %+v, want not_found rejection", outcome)
	}
}

func TestCreateUniversal(t *testing.T) {
	users := &fakeUserRepo{users: map[string]models.User{}}
	codeRepo := newFakeCodeRepo()
	service := newTestService(users, codeRepo)

	code, err := service.CreateUniversal(context.Background(), 0)
	if err != nil {
		t.Fatalf("CreateUniversal: %v", err)
	}
	if !code.Scope.Universal {
		t.Error("universal code should carry a universal scope")
	}
	if code.MaxUses != UniversalMaxUses {
		t.Errorf("MaxUses = %d, want default %d", code.MaxUses, UniversalMaxUses)
	}
	if !strings.HasPrefix(code.Code, "ADMIN-") {
		t.Errorf("token %q missing ADMIN- prefix", code.Code)
	}
	if code.CreatedByID != nil {
		t.Error("universal code should have no issuer")
	}
}
