package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto_backend/internal/feature/symbollist/domain/entity"
	"crypto_backend/internal/feature/symbollist/transport/http/dto"
)

// InstrumentUsecase は銘柄カタログに関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type InstrumentUsecase interface {
	ListInstruments(ctx context.Context) ([]entity.Instrument, error)
}

// SymbolHandler は銘柄カタログに関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc InstrumentUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc InstrumentUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は保存済み銘柄の一覧を取得するAPIです。
// Usecaseを呼び出して銘柄一覧を取得し、DTOに変換してJSONレスポンスとして返します。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	insts, err := h.uc.ListInstruments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(insts))
	for _, i := range insts {
		out = append(out, dto.SymbolItem{
			Symbol:    i.Symbol,
			BaseCoin:  i.BaseCoin,
			QuoteCoin: i.QuoteCoin,
			TickSize:  i.TickSize.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}
