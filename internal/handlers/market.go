package handlers

import (
	"context"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

// MarketStatusProvider classifies the current trading session
type MarketStatusProvider interface {
	Status(ctx context.Context) services.MarketStatus
}

type MarketHandler struct {
	market MarketStatusProvider
}

func NewMarketHandler(market MarketStatusProvider) *MarketHandler {
	return &MarketHandler{market: market}
}

// GetStatus handles GET /api/market/status
func (h *MarketHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.market.Status(r.Context()))
}
