package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	contentapp "github.com/storefront/backend/internal/application/content"
	currencyapp "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/application/dashboard"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/media"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func testRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

// orNil returns the typed first result of a mock call
func orNil[T any](args mock.Arguments) *T {
	if v := args.Get(0); v != nil {
		return v.(*T)
	}
	return nil
}

type MockProductService struct{ mock.Mock }

func (m *MockProductService) ListStorefront(ctx context.Context, req catalogapp.ListProductsRequest, display string) (*shared.Paginated[catalogapp.StorefrontProduct], error) {
	args := m.Called(ctx, req, display)
	return orNil[shared.Paginated[catalogapp.StorefrontProduct]](args), args.Error(1)
}

func (m *MockProductService) GetBySlug(ctx context.Context, slug, display string) (*catalogapp.StorefrontProduct, error) {
	args := m.Called(ctx, slug, display)
	return orNil[catalogapp.StorefrontProduct](args), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, req catalogapp.AdminListProductsRequest) (*shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, req)
	return orNil[shared.Paginated[catalogapp.ProductResponse]](args), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, req)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Publish(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Archive(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) AdjustStock(ctx context.Context, id uuid.UUID, req catalogapp.AdjustStockRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[catalogapp.ProductResponse](args), args.Error(1)
}

type MockCategoryService struct{ mock.Mock }

func (m *MockCategoryService) List(ctx context.Context, activeOnly bool) ([]catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]catalogapp.CategoryResponse), args.Error(1)
}

func (m *MockCategoryService) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, id)
	return orNil[catalogapp.CategoryResponse](args), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, req catalogapp.CreateCategoryRequest) (*catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, req)
	return orNil[catalogapp.CategoryResponse](args), args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateCategoryRequest) (*catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[catalogapp.CategoryResponse](args), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockCartService struct{ mock.Mock }

func (m *MockCartService) View(ctx context.Context, token, display string) (*cartapp.CartView, string, error) {
	args := m.Called(ctx, token, display)
	return orNil[cartapp.CartView](args), args.String(1), args.Error(2)
}

func (m *MockCartService) AddItem(ctx context.Context, token, display string, req cartapp.AddItemRequest) (*cartapp.CartView, string, error) {
	args := m.Called(ctx, token, display, req)
	return orNil[cartapp.CartView](args), args.String(1), args.Error(2)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, token, display string, productID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartView, string, error) {
	args := m.Called(ctx, token, display, productID, req)
	return orNil[cartapp.CartView](args), args.String(1), args.Error(2)
}

func (m *MockCartService) RemoveItem(ctx context.Context, token, display string, productID uuid.UUID) (*cartapp.CartView, string, error) {
	args := m.Called(ctx, token, display, productID)
	return orNil[cartapp.CartView](args), args.String(1), args.Error(2)
}

func (m *MockCartService) Clear(ctx context.Context, token, display string) (*cartapp.CartView, string, error) {
	args := m.Called(ctx, token, display)
	return orNil[cartapp.CartView](args), args.String(1), args.Error(2)
}

type MockCheckoutService struct{ mock.Mock }

func (m *MockCheckoutService) PlaceOrder(ctx context.Context, token string, req checkoutapp.PlaceOrderRequest) (*checkoutapp.PlaceOrderResult, error) {
	args := m.Called(ctx, token, req)
	return orNil[checkoutapp.PlaceOrderResult](args), args.Error(1)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) List(ctx context.Context, req orderapp.ListOrdersRequest) (*shared.Paginated[orderapp.OrderListItem], error) {
	args := m.Called(ctx, req)
	return orNil[shared.Paginated[orderapp.OrderListItem]](args), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Lookup(ctx context.Context, req orderapp.LookupOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, req)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Ship(ctx context.Context, id uuid.UUID, req orderapp.ShipOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Deliver(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID, req orderapp.CancelOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Refund(ctx context.Context, id uuid.UUID, req orderapp.RefundOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Invoice(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, id)
	var pdf []byte
	if v := args.Get(0); v != nil {
		pdf = v.([]byte)
	}
	return pdf, args.String(1), args.Error(2)
}

type MockWebhookService struct{ mock.Mock }

func (m *MockWebhookService) Handle(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	return orNil[paymentapp.WebhookResult](args), args.Error(1)
}

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req, ip)
	return orNil[identityapp.LoginResponse](args), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*identityapp.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	return orNil[identityapp.TokenResponse](args), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, principal *identityapp.Principal, refreshToken string) error {
	return m.Called(ctx, principal, refreshToken).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, principal *identityapp.Principal) (*identityapp.AdminResponse, error) {
	args := m.Called(ctx, principal)
	return orNil[identityapp.AdminResponse](args), args.Error(1)
}

type MockContentService struct{ mock.Mock }

func (m *MockContentService) LiveBanners(ctx context.Context) ([]contentapp.BannerResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]contentapp.BannerResponse), args.Error(1)
}

func (m *MockContentService) ListBanners(ctx context.Context) ([]contentapp.BannerResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]contentapp.BannerResponse), args.Error(1)
}

func (m *MockContentService) CreateBanner(ctx context.Context, req contentapp.BannerRequest) (*contentapp.BannerResponse, error) {
	args := m.Called(ctx, req)
	return orNil[contentapp.BannerResponse](args), args.Error(1)
}

func (m *MockContentService) UpdateBanner(ctx context.Context, id uuid.UUID, req contentapp.BannerRequest) (*contentapp.BannerResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[contentapp.BannerResponse](args), args.Error(1)
}

func (m *MockContentService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) PublishedCollections(ctx context.Context) ([]contentapp.CollectionResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]contentapp.CollectionResponse), args.Error(1)
}

func (m *MockContentService) ListCollections(ctx context.Context) ([]contentapp.CollectionResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]contentapp.CollectionResponse), args.Error(1)
}

func (m *MockContentService) GetCollection(ctx context.Context, slug, display string) (*contentapp.CollectionView, error) {
	args := m.Called(ctx, slug, display)
	return orNil[contentapp.CollectionView](args), args.Error(1)
}

func (m *MockContentService) CreateCollection(ctx context.Context, req contentapp.CollectionRequest) (*contentapp.CollectionResponse, error) {
	args := m.Called(ctx, req)
	return orNil[contentapp.CollectionResponse](args), args.Error(1)
}

func (m *MockContentService) UpdateCollection(ctx context.Context, id uuid.UUID, req contentapp.CollectionRequest) (*contentapp.CollectionResponse, error) {
	args := m.Called(ctx, id, req)
	return orNil[contentapp.CollectionResponse](args), args.Error(1)
}

func (m *MockContentService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) GetAbout(ctx context.Context) (*contentapp.AboutPageResponse, error) {
	args := m.Called(ctx)
	return orNil[contentapp.AboutPageResponse](args), args.Error(1)
}

func (m *MockContentService) PutAbout(ctx context.Context, req contentapp.AboutPageRequest) (*contentapp.AboutPageResponse, error) {
	args := m.Called(ctx, req)
	return orNil[contentapp.AboutPageResponse](args), args.Error(1)
}

type MockCurrencyService struct{ mock.Mock }

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]currencyapp.CurrencyResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]currencyapp.CurrencyResponse), args.Error(1)
}

func (m *MockCurrencyService) GetRates(ctx context.Context) ([]currencyapp.RateResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]currencyapp.RateResponse), args.Error(1)
}

func (m *MockCurrencyService) SetRate(ctx context.Context, req currencyapp.SetRateRequest) (*currencyapp.RateResponse, error) {
	args := m.Called(ctx, req)
	return orNil[currencyapp.RateResponse](args), args.Error(1)
}

func (m *MockCurrencyService) Convert(ctx context.Context, req currencyapp.ConvertRequest) (*currencyapp.ConvertResponse, error) {
	args := m.Called(ctx, req)
	return orNil[currencyapp.ConvertResponse](args), args.Error(1)
}

type MockMediaService struct{ mock.Mock }

func (m *MockMediaService) CreateUploadURL(ctx context.Context, req media.CreateUploadURLRequest) (*media.UploadURLResponse, error) {
	args := m.Called(ctx, req)
	return orNil[media.UploadURLResponse](args), args.Error(1)
}

type MockDashboardService struct{ mock.Mock }

func (m *MockDashboardService) Summary(ctx context.Context, req dashboard.SummaryRequest) (*dashboard.Summary, error) {
	args := m.Called(ctx, req)
	return orNil[dashboard.Summary](args), args.Error(1)
}

type MockReconciler struct{ mock.Mock }

func (m *MockReconciler) Run(ctx context.Context) (*paymentapp.ReconcileReport, error) {
	args := m.Called(ctx)
	return orNil[paymentapp.ReconcileReport](args), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
