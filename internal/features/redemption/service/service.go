package service

import (
	"context"

	apperrors "streamwear-backend/internal/common/errors"
	"streamwear-backend/internal/common/logger"
	connectorrepo "streamwear-backend/internal/features/connector/repository"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
	"streamwear-backend/internal/platform/shopify"
)

// CatalogClient is the slice of the Shopify client the redemption page needs.
type CatalogClient interface {
	ProductDetails(ctx context.Context, productID int64) (*shopify.Product, error)
}

// RedemptionService resolves a public redemption code into everything the
// claim page renders.
type RedemptionService struct {
	repo       repository.GiveawayRepository
	connectors connectorrepo.ConnectorRepository
	catalog    CatalogClient
}

func NewRedemptionService(repo repository.GiveawayRepository, connectors connectorrepo.ConnectorRepository, catalog CatalogClient) *RedemptionService {
	return &RedemptionService{repo: repo, connectors: connectors, catalog: catalog}
}

// View is the claim-page model. Product is nil when the catalog lookup
// degrades; the page then renders the stored product title only.
type View struct {
	Code           string           `json:"code"`
	Claimed        bool             `json:"claimed"`
	StreamerName   string           `json:"streamer_name,omitempty"`
	WinnerLogin    string           `json:"winner_login,omitempty"`
	ProductTitle   string           `json:"product_title"`
	Quantity       int              `json:"quantity"`
	Product        *shopify.Product `json:"product,omitempty"`
	DefaultVariant *shopify.Variant `json:"default_variant,omitempty"`
}

// Resolve looks up a redemption code. Unknown codes get INVALID_CODE; a
// Shopify outage degrades the catalog part instead of failing the page.
func (s *RedemptionService) Resolve(ctx context.Context, code string) (*View, error) {
	if code == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "missing code")
	}

	detail, err := s.repo.GetWinnerDetail(ctx, code)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get winner detail", err)
	}
	if detail == nil {
		return nil, apperrors.NewInvalidCodeError(code)
	}

	giveaway, err := s.repo.GetGiveaway(ctx, detail.GiveawayID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get giveaway", err)
	}
	if giveaway == nil {
		return nil, apperrors.NewInvalidCodeError(code)
	}

	order, err := s.repo.GetOrder(ctx, giveaway.GiveawayOrderID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get giveaway order", err)
	}
	if order == nil {
		return nil, apperrors.NewInvalidCodeError(code)
	}

	view := &View{
		Code:         detail.ID,
		Claimed:      detail.Submitted(),
		ProductTitle: order.ProductTitle,
		Quantity:     order.Quantity,
	}
	if giveaway.WinnerTwitchDisplayName != nil && *giveaway.WinnerTwitchDisplayName != "" {
		view.WinnerLogin = *giveaway.WinnerTwitchDisplayName
	} else if giveaway.WinnerTwitchLogin != nil {
		view.WinnerLogin = *giveaway.WinnerTwitchLogin
	}

	connector, err := s.connectors.GetByUUID(ctx, giveaway.StreamerUUID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get connector", err)
	}
	if connector != nil {
		view.StreamerName = connector.DisplayName
	}

	productID := order.ProductID
	if detail.ShopifyProductID != nil {
		productID = *detail.ShopifyProductID
	}
	product, err := s.catalog.ProductDetails(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Int64("product_id", productID).Msg("redemption: catalog lookup degraded")
	} else if product != nil {
		view.Product = product
		view.DefaultVariant = ChooseDefaultVariant(product, detail.ShopifyVariantID)
	}

	return view, nil
}

// Redeem submits shipping data for the code; valid exactly once.
func (s *RedemptionService) Redeem(ctx context.Context, code string, shipping models.Shipping) error {
	if code == "" {
		return apperrors.New(apperrors.ErrCodeValidation, "missing code")
	}
	if err := shipping.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	if err := s.repo.SubmitShipping(ctx, code, shipping); err != nil {
		switch err {
		case repository.ErrDetailNotFound:
			return apperrors.NewInvalidCodeError(code)
		case repository.ErrAlreadyClaimed:
			return apperrors.New(apperrors.ErrCodeAlreadyClaimed, "shipping data already submitted")
		default:
			return apperrors.NewDatabaseError("submit shipping", err)
		}
	}
	return nil
}

// ChooseDefaultVariant preselects the variant the page offers: the purchased
// variant when it is still available for sale, otherwise the first available
// one, otherwise the first listed.
func ChooseDefaultVariant(product *shopify.Product, purchasedVariantID *int64) *shopify.Variant {
	if product == nil || len(product.Variants) == 0 {
		return nil
	}
	if purchasedVariantID != nil {
		for i := range product.Variants {
			v := &product.Variants[i]
			if v.ID == *purchasedVariantID && v.AvailableForSale {
				return v
			}
		}
	}
	for i := range product.Variants {
		if product.Variants[i].AvailableForSale {
			return &product.Variants[i]
		}
	}
	return &product.Variants[0]
}
