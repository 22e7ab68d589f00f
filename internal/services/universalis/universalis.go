package universalis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"xivmarket/internal/errx"
	"xivmarket/internal/models"
)

// MaxItemsPerRequest is how many item IDs go into one multi-item call.
// The API caps a request at 100.
const MaxItemsPerRequest = 99

// Quality selects which listings the market board returns
type Quality int

const (
	AnyQuality Quality = iota
	NQ
	HQ
)

func (q Quality) param() string {
	switch q {
	case NQ:
		return "false"
	case HQ:
		return "true"
	default:
		return ""
	}
}

type UniversalisService struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// ItemListings is the current market board state of one item
type ItemListings struct {
	ItemID    int                   `json:"itemID"`
	WorldName string                `json:"worldName"`
	DCName    string                `json:"dcName"`
	Listings  []models.PriceListing `json:"listings"`
}

// ItemHistory is the recent sale history of one item
type ItemHistory struct {
	ItemID              int                   `json:"itemID"`
	RegularSaleVelocity float64               `json:"regularSaleVelocity"`
	NQSaleVelocity      float64               `json:"nqSaleVelocity"`
	HQSaleVelocity      float64               `json:"hqSaleVelocity"`
	Entries             []models.PriceListing `json:"entries"`
}

type multiResponse[T any] struct {
	ItemIDs         []int        `json:"itemIDs"`
	Items           map[string]T `json:"items"`
	UnresolvedItems []int        `json:"unresolvedItems"`
}

func NewUniversalisService(baseURL string, timeout time.Duration, perSecond float64) *UniversalisService {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &UniversalisService{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// CurrentListings fetches the cheapest `listings` listings of each item on a
// world, data center or region. At most MaxItemsPerRequest IDs per call.
func (s *UniversalisService) CurrentListings(ctx context.Context, server string, itemIDs []int, listings int, quality Quality) (map[int]ItemListings, error) {
	params := map[string]string{
		"listings":      strconv.Itoa(listings),
		"entriesWithin": "0",
	}
	if hq := quality.param(); hq != "" {
		params["hq"] = hq
	}
	return fetchItems[ItemListings](ctx, s, "/"+url.PathEscape(server)+"/", itemIDs, params)
}

// History fetches sale history and velocity of each item on a server.
func (s *UniversalisService) History(ctx context.Context, server string, itemIDs []int) (map[int]ItemHistory, error) {
	return fetchItems[ItemHistory](ctx, s, "/history/"+url.PathEscape(server)+"/", itemIDs, nil)
}

// HistoryWithin fetches the sales of one item made within the given window.
func (s *UniversalisService) HistoryWithin(ctx context.Context, server string, itemID int, within time.Duration) (ItemHistory, error) {
	params := map[string]string{
		"entriesWithin":   strconv.Itoa(int(within.Seconds())),
		"entriesToReturn": "999999",
	}
	items, err := fetchItems[ItemHistory](ctx, s, "/history/"+url.PathEscape(server)+"/", []int{itemID}, params)
	if err != nil {
		return ItemHistory{}, err
	}
	return items[itemID], nil
}

func (s *UniversalisService) Worlds(ctx context.Context) ([]models.World, error) {
	var worlds []models.World
	if err := s.getJSON(ctx, "/worlds", nil, &worlds); err != nil {
		return nil, err
	}
	return worlds, nil
}

func (s *UniversalisService) DataCenters(ctx context.Context) ([]models.DataCenter, error) {
	var dcs []models.DataCenter
	if err := s.getJSON(ctx, "/data-centers", nil, &dcs); err != nil {
		return nil, err
	}
	return dcs, nil
}

func fetchItems[T any](ctx context.Context, s *UniversalisService, prefix string, itemIDs []int, params map[string]string) (map[int]T, error) {
	if len(itemIDs) == 0 {
		return map[int]T{}, nil
	}
	if len(itemIDs) > MaxItemsPerRequest {
		return nil, fmt.Errorf("%d item ids exceed the per request limit of %d", len(itemIDs), MaxItemsPerRequest)
	}

	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = strconv.Itoa(id)
	}
	path := prefix + strings.Join(ids, ",")

	out := make(map[int]T, len(itemIDs))
	if len(itemIDs) == 1 {
		var item T
		if err := s.getJSON(ctx, path, params, &item); err != nil {
			return nil, err
		}
		out[itemIDs[0]] = item
		return out, nil
	}

	var multi multiResponse[T]
	if err := s.getJSON(ctx, path, params, &multi); err != nil {
		return nil, err
	}
	for _, id := range itemIDs {
		item, ok := multi.Items[strconv.Itoa(id)]
		if !ok {
			return nil, errx.NotFound("item %d in market data for %s", id, path)
		}
		out[id] = item
	}
	return out, nil
}

func (s *UniversalisService) getJSON(ctx context.Context, path string, params map[string]string, dst any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req := s.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return errx.InvalidResponse(path, err)
	}
	reqURL := resp.Request.URL
	if resp.StatusCode() != http.StatusOK {
		return errx.InvalidResponse(reqURL, fmt.Errorf("status %d", resp.StatusCode()))
	}
	body := resp.Body()
	if isEmptyPayload(body) {
		return errx.InvalidResponse(reqURL, nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errx.InvalidResponse(reqURL, err)
	}
	return nil
}

func isEmptyPayload(body []byte) bool {
	switch strings.TrimSpace(string(body)) {
	case "", "{}", "[]", "null":
		return true
	}
	return false
}
