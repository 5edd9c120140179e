package v1

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/core/repository/memory"
	"github.com/duynhne/classifieds-service/internal/events"
	"github.com/duynhne/classifieds-service/internal/storage"
	"github.com/duynhne/classifieds-service/middleware"
)

var (
	owner    = domain.Actor{UserID: "u1", Role: domain.RoleUser}
	stranger = domain.Actor{UserID: "u2", Role: domain.RoleUser}
	admin    = domain.Actor{UserID: "a1", Role: domain.RoleAdmin}
)

func vehicleInput() domain.ListingInput {
	return domain.ListingInput{
		Title: "Tata Nexon",
		Attributes: map[string]any{
			"brand":   "Tata",
			"model":   "Nexon",
			"year":    float64(2021),
			"price":   float64(850000),
			"city":    "Pune",
			"contact": "9876543210",
		},
		Images: []string{"/api/files/a.jpg"},
	}
}

func newListingService(t *testing.T) (*ListingService, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	return NewListingService(memory.NewListingRepository(), catalog.MustLoad(), rec, zap.NewNop()), rec
}

func TestListingService_CreateGetList(t *testing.T) {
	ctx := context.Background()
	svc, rec := newListingService(t)

	in := vehicleInput()
	in.UserID = "someone-else"
	created, err := svc.Create(ctx, owner, "vehicles", in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID, "non-admins always own what they create")
	assert.True(t, created.IsActive)
	assert.False(t, created.IsFeatured)

	got, err := svc.Get(ctx, "vehicles", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Attributes, got.Attributes)

	list, err := svc.List(ctx, "vehicles", domain.ListingFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "listing.vehicles.created", rec.Events()[0].RoutingKey())
}

func TestListingService_AdminCreatesOnBehalf(t *testing.T) {
	svc, _ := newListingService(t)
	in := vehicleInput()
	in.UserID, in.Role = "u9", domain.RoleUser

	created, err := svc.Create(context.Background(), admin, "vehicles", in)
	require.NoError(t, err)
	assert.Equal(t, "u9", created.UserID)
	assert.Equal(t, domain.RoleUser, created.Role)
}

func TestListingService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newListingService(t)

	_, err := svc.Create(ctx, owner, "spaceships", vehicleInput())
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	in := vehicleInput()
	delete(in.Attributes, "brand")
	in.Images = []string{"blob:http://localhost/123"}
	_, err = svc.Create(ctx, owner, "vehicles", in)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "brand")
	assert.Contains(t, verr.Fields, "images")

	in = vehicleInput()
	in.Images = make([]string, attach.MaxImages+1)
	for i := range in.Images {
		in.Images[i] = "https://cdn.example.com/x.jpg"
	}
	_, err = svc.Create(ctx, owner, "vehicles", in)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "images")
}

func TestListingService_OwnershipAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newListingService(t)
	created, err := svc.Create(ctx, owner, "vehicles", vehicleInput())
	require.NoError(t, err)

	in := vehicleInput()
	in.Title = "Tata Nexon EV"
	_, err = svc.Update(ctx, stranger, "vehicles", created.ID, in)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, stranger, "vehicles", created.ID), domain.ErrUnauthorized)
	_, err = svc.Toggle(ctx, stranger, "vehicles", created.ID, domain.FlagActive)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := svc.Update(ctx, owner, "vehicles", created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Tata Nexon EV", updated.Title)
	assert.Equal(t, "u1", updated.UserID)
	assert.True(t, updated.IsActive, "omitted flags keep their value")

	_, err = svc.Update(ctx, admin, "vehicles", "missing", in)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestListingService_PatchMerges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newListingService(t)
	created, err := svc.Create(ctx, owner, "vehicles", vehicleInput())
	require.NoError(t, err)

	featured := true
	patched, err := svc.Patch(ctx, owner, "vehicles", created.ID, domain.ListingPatch{
		Attributes: map[string]any{"price": float64(800000), "fuelType": "diesel"},
		IsFeatured: &featured,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tata Nexon", patched.Title)
	assert.Equal(t, float64(800000), patched.Attributes["price"])
	assert.Equal(t, "diesel", patched.Attributes["fuelType"])
	assert.Equal(t, "Tata", patched.Attributes["brand"])
	assert.True(t, patched.IsFeatured)

	_, err = svc.Patch(ctx, owner, "vehicles", created.ID, domain.ListingPatch{Attributes: map[string]any{"brand": nil}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "brand")
}

func TestListingService_ToggleFlipsOnlyOneFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newListingService(t)
	created, err := svc.Create(ctx, owner, "vehicles", vehicleInput())
	require.NoError(t, err)

	res, err := svc.Toggle(ctx, owner, "vehicles", created.ID, domain.FlagActive)
	require.NoError(t, err)
	assert.False(t, res.IsActive)
	assert.False(t, res.IsFeatured)

	res, err = svc.Toggle(ctx, admin, "vehicles", created.ID, domain.FlagFeatured)
	require.NoError(t, err)
	assert.False(t, res.IsActive)
	assert.True(t, res.IsFeatured)

	got, err := svc.Get(ctx, "vehicles", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Attributes, got.Attributes)

	view, err := svc.Details(ctx, "vehicles", created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, view.Fields)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Vehicles":             "vehicles",
		"  Health & Beauty ":   "health-and-beauty",
		"Café Équipement":      "cafe-equipement",
		"Cars / Bikes -- 2024": "cars-bikes-2024",
		"!!!":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(memory.NewCategoryRepository())

	c, err := svc.Create(ctx, domain.CategoryInput{Name: "Real Estate", Color: "#16a34a"})
	require.NoError(t, err)
	assert.Equal(t, "real-estate", c.Slug)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, domain.CategoryInput{Name: "real estate"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	sub, err := svc.CreateSubcategory(ctx, c.ID, domain.SubcategoryInput{Name: "Plots"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, sub.ParentCategoryID)
	assert.Equal(t, "#16a34a", sub.Color)

	_, err = svc.CreateSubcategory(ctx, "missing", domain.SubcategoryInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	inactive := false
	_, err = svc.UpdateSubcategory(ctx, sub.ID, domain.SubcategoryInput{Name: "Plots", IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Empty(t, active[0].Subcategories)

	n, err := svc.Seed(ctx, catalog.MustLoad().SeedCategories())
	require.NoError(t, err)
	assert.Equal(t, len(catalog.MustLoad().SeedCategories()), n)
	n, err = svc.Seed(ctx, catalog.MustLoad().SeedCategories())
	require.NoError(t, err)
	assert.Zero(t, n)
}

type authFixture struct {
	svc        *AuthService
	categories *CategoryService
	proFields  *ProFieldService
	catID      string
	subID      string
	otherSubID string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctx := context.Background()
	catRepo := memory.NewCategoryRepository()
	proRepo := memory.NewProFieldRepository()
	tokens := middleware.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour, "test")

	f := &authFixture{
		svc:        NewAuthService(memory.NewUserRepository(), catRepo, proRepo, tokens),
		categories: NewCategoryService(catRepo),
		proFields:  NewProFieldService(proRepo),
	}
	c1, err := f.categories.Create(ctx, domain.CategoryInput{Name: "Vehicles"})
	require.NoError(t, err)
	c2, err := f.categories.Create(ctx, domain.CategoryInput{Name: "Property"})
	require.NoError(t, err)
	s1, err := f.categories.CreateSubcategory(ctx, c1.ID, domain.SubcategoryInput{Name: "Cars"})
	require.NoError(t, err)
	s2, err := f.categories.CreateSubcategory(ctx, c2.ID, domain.SubcategoryInput{Name: "Plots"})
	require.NoError(t, err)
	f.catID, f.subID, f.otherSubID = c1.ID, s1.ID, s2.ID
	return f
}

func signupRequest(accountType string) domain.SignupRequest {
	return domain.SignupRequest{
		FirstName:   "Asha",
		Email:       "Asha@Example.com",
		Phone:       "9876543210",
		Password:    "s3cret-pass",
		AccountType: accountType,
		Country:     "India",
		City:        "Pune",
	}
}

func TestAuthService_SignupUserDropsSelections(t *testing.T) {
	f := newAuthFixture(t)
	req := signupRequest(domain.AccountUser)
	req.CategoryIDs = []string{f.catID}
	req.SubcategoryIDs = []string{f.subID}

	res, err := f.svc.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, LoginRoute, res.Redirect)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Empty(t, res.User.CategoryIDs)
	assert.Empty(t, res.User.SubcategoryIDs)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.NotEqual(t, req.Password, res.User.PasswordHash)

	_, err = f.svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestAuthService_SignupSelections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	var verr *domain.ValidationError

	req := signupRequest(domain.AccountSeller)
	_, err := f.svc.Signup(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "categoryIds")
	assert.Contains(t, verr.Fields, "subcategoryIds")

	req.CategoryIDs = []string{f.catID}
	req.SubcategoryIDs = []string{f.otherSubID}
	_, err = f.svc.Signup(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["subcategoryIds"], "does not belong")

	req.SubcategoryIDs = []string{f.subID}
	req.Documents = []string{"blob:http://localhost:5173/8c1e"}
	_, err = f.svc.Signup(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "documents[0]")

	req.Documents = []string{"/api/files/licence.png"}
	res, err := f.svc.Signup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{f.catID}, res.User.CategoryIDs)
	assert.Equal(t, []string{"/api/files/licence.png"}, res.User.Documents)
}

func TestAuthService_SignupProRequiresProFields(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.proFields.Save(ctx, domain.ProField{Key: "agencyName", Label: "Agency name", Required: true})
	require.NoError(t, err)

	req := signupRequest(domain.AccountPro)
	req.CategoryIDs = []string{f.catID}
	req.SubcategoryIDs = []string{f.subID}
	_, err = f.svc.Signup(ctx, req)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "proProfile.agencyname")

	req.ProProfile = map[string]string{"agencyname": "Asha Realty"}
	res, err := f.svc.Signup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Asha Realty", res.User.ProProfile["agencyname"])
}

func TestAuthService_LoginAndMe(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res, err := f.svc.Signup(ctx, signupRequest(domain.AccountUser))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	session, err := f.svc.Login(ctx, domain.LoginRequest{Email: "ASHA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	me, err := f.svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, res.User.Email, me.Email)
}

func TestUserService_Stats(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	cats := memory.NewCategoryRepository()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "1", Email: "a@x.io", AccountType: domain.AccountPro}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "2", Email: "b@x.io", AccountType: domain.AccountBuyer}))
	require.NoError(t, listings.Create(ctx, &domain.Listing{ID: "l1", Resource: "pets", IsActive: true}))
	require.NoError(t, listings.Create(ctx, &domain.Listing{ID: "l2", Resource: "jobs"}))

	stats, err := NewUserService(users, cats, listings).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.ProUsers)
	assert.Equal(t, 2, stats.Listings)
	assert.Len(t, stats.ByResource, 2)
}

func TestUploadService(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	svc := NewUploadService(store, "https://cdn.example.com", 1600)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	res, err := svc.Upload(ctx, &img)
	require.NoError(t, err)
	assert.Regexp(t, `^https://cdn\.example\.com/api/files/.+\.png$`, res.URL)
	assert.True(t, attach.IsStableURL(res.URL))

	_, err = svc.Upload(ctx, bytes.NewReader([]byte("%PDF-1.4 not an image")))
	assert.ErrorIs(t, err, attach.ErrUnsupportedType)

	_, err = svc.Open(ctx, "nope.png")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}
