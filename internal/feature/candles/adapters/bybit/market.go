package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto_backend/internal/feature/candles/adapters/bybit/dto"
	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

// klinePageLimit はklineエンドポイントの1リクエスト最大件数です。
const klinePageLimit = 1000

// klineInterval はベース時間足（5分）に対応するBybitのinterval値です。
const klineInterval = "5"

// Market はBybit v5マーケットAPIからローソク足データを取得する
// MarketRepository実装です。
type Market struct {
	cfg    Config
	client *http.Client
}

// MarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*Market)(nil)

// NewMarket は指定された設定とHTTPクライアントでMarketの新しいインスタンスを生成します。
func NewMarket(cfg Config, client *http.Client) *Market {
	return &Market{cfg: cfg, client: client}
}

// FetchKlines は [start, end] のベース時間足レコードを時刻昇順で返します。
// Bybitは新しい順・最大1000件で返すため、上限に達した場合は最古行の
// 手前を新たな終端としてページングします。フィールドは取引所が返した
// 文字列のまま保持します（パースは正規化工程の責務）。
func (m *Market) FetchKlines(ctx context.Context, symbol string, start, end time.Time) ([]entity.RawCandle, error) {
	var pages [][]entity.RawCandle
	total := 0

	cursor := end
	for {
		page, err := m.fetchKlinePage(ctx, symbol, start, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		total += len(page)

		if len(page) < klinePageLimit {
			break
		}
		// 最古行の開始時刻の1ms手前から続きを取得
		oldest, err := strconv.ParseInt(page[len(page)-1].StartTime, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse start time %q: %w", page[len(page)-1].StartTime, err)
		}
		cursor = time.UnixMilli(oldest - 1).UTC()
	}

	// ページは新しい順なので、逆順に連結して昇順へ並べ替える
	rows := make([]entity.RawCandle, 0, total)
	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		for j := len(page) - 1; j >= 0; j-- {
			rows = append(rows, page[j])
		}
	}
	return rows, nil
}

// fetchKlinePage は1ページ分のklineレコードを新しい順のまま返します。
func (m *Market) fetchKlinePage(ctx context.Context, symbol string, start, end time.Time) ([]entity.RawCandle, error) {
	q := url.Values{}
	q.Set("category", m.cfg.Category)
	q.Set("symbol", symbol)
	q.Set("interval", klineInterval)
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(klinePageLimit))

	u := fmt.Sprintf("%s/v5/market/kline?%s", m.cfg.BaseURL, q.Encode())

	var body dto.KlineResponse
	if err := m.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if body.RetCode != 0 {
		return nil, fmt.Errorf("bybit: %s (retCode=%d)", body.RetMsg, body.RetCode)
	}

	rows := make([]entity.RawCandle, 0, len(body.Result.List))
	for _, v := range body.Result.List {
		if len(v) != 7 {
			return nil, fmt.Errorf("bybit: kline entry has %d fields, want 7", len(v))
		}
		rows = append(rows, entity.RawCandle{
			StartTime:  v[0],
			OpenPrice:  v[1],
			HighPrice:  v[2],
			LowPrice:   v[3],
			ClosePrice: v[4],
			Volume:     v[5],
			Turnover:   v[6],
		})
	}
	return rows, nil
}

// FetchInstruments は取扱銘柄の一覧をAPIレスポンスのDTOのまま返します。
// エンティティへの変換は銘柄カタログ側のアダプタが行います。
func (m *Market) FetchInstruments(ctx context.Context) ([]dto.InstrumentInfo, error) {
	var all []dto.InstrumentInfo
	cursor := ""

	for {
		q := url.Values{}
		q.Set("category", m.cfg.Category)
		q.Set("limit", strconv.Itoa(klinePageLimit))
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		u := fmt.Sprintf("%s/v5/market/instruments-info?%s", m.cfg.BaseURL, q.Encode())

		var body dto.InstrumentsInfoResponse
		if err := m.getJSON(ctx, u, &body); err != nil {
			return nil, err
		}
		if body.RetCode != 0 {
			return nil, fmt.Errorf("bybit: %s (retCode=%d)", body.RetMsg, body.RetCode)
		}

		all = append(all, body.Result.List...)
		cursor = body.Result.NextPageCursor
		if cursor == "" || len(body.Result.List) == 0 {
			break
		}
	}
	return all, nil
}

func (m *Market) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("bybit http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
