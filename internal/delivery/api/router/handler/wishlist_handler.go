package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/entity"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// WishlistHandlerParams holds dependencies for WishlistHandler, injected by Fx.
type WishlistHandlerParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Logger   *slog.Logger
}

// WishlistHandler serves the wishlist of the current session and identity.
type WishlistHandler struct {
	sessions usecase.SessionUsecase
	logger   *slog.Logger
}

// NewWishlistHandler is the constructor for WishlistHandler
func NewWishlistHandler(params WishlistHandlerParams) *WishlistHandler {
	return &WishlistHandler{
		sessions: params.Sessions,
		logger:   params.Logger,
	}
}

// AddWishlistRequest saves a product for later.
type AddWishlistRequest struct {
	ProductID int64  `json:"id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required"`
	Price     string `json:"price" validate:"omitempty,numeric"`
	ImageURL  string `json:"imageUrl"`
	Slug      string `json:"slug"`
}

// WishlistContainsResponse tells whether a product is saved.
type WishlistContainsResponse struct {
	ProductID int64 `json:"id"`
	Contains  bool  `json:"contains"`
}

// GetWishlist returns the saved products.
func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)

	return response.Success(c, http.StatusOK, bundle.Wishlist.Items(identity))
}

// AddItem saves a product. Saving a product twice keeps one entry.
func (h *WishlistHandler) AddItem(c echo.Context) error {
	var req AddWishlistRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid wishlist item")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	price := decimal.Zero
	if req.Price != "" {
		parsed, err := decimal.NewFromString(req.Price)
		if err != nil {
			return response.BadRequest(c, "INVALID_PRICE", "Invalid price")
		}
		price = parsed
	}

	bundle, identity := sessionOf(c, h.sessions)
	items := bundle.Wishlist.Add(identity, entity.WishlistItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     price,
		ImageURL:  req.ImageURL,
		Slug:      req.Slug,
	})

	return response.Success(c, http.StatusCreated, items)
}

// Contains reports whether the product in the path is saved.
func (h *WishlistHandler) Contains(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid product ID")
	}

	bundle, identity := sessionOf(c, h.sessions)

	return response.Success(c, http.StatusOK, WishlistContainsResponse{
		ProductID: productID,
		Contains:  bundle.Wishlist.Contains(identity, productID),
	})
}

// RemoveItem drops the product in the path.
func (h *WishlistHandler) RemoveItem(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid product ID")
	}

	bundle, identity := sessionOf(c, h.sessions)

	return response.Success(c, http.StatusOK, bundle.Wishlist.Remove(identity, productID))
}

// ClearWishlist empties the wishlist.
func (h *WishlistHandler) ClearWishlist(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)
	bundle.Wishlist.Clear(identity)

	return response.Success(c, http.StatusOK, []entity.WishlistItem{})
}
