package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"xivmarket/internal/bot"
	"xivmarket/internal/config"
	"xivmarket/internal/errx"
	"xivmarket/internal/logx"
	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
)

// Servers resolves names and lists the known server topology.
type Servers interface {
	Lookup(server string) (market.Server, error)
	Worlds() []models.World
	DataCenters() []models.DataCenter
	Regions() []models.Region
}

// History is the sale history side of the pricer.
type History interface {
	Resolve(names []string) ([]market.Ref, error)
	SaleStatsFor(ctx context.Context, ref market.Ref, server string, nDays int) (*models.SaleStats, error)
}

// Chat runs chat messages arriving over the websocket.
type Chat interface {
	Handle(ctx context.Context, user, text string) (*bot.Message, error)
}

type APIHandler struct {
	rankings bot.Rankings
	servers  Servers
	history  History
	chat     Chat
	tuning   config.Tuning
	upgrader websocket.Upgrader
}

func NewAPIHandler(rankings bot.Rankings, servers Servers, history History, chat Chat, tuning config.Tuning) *APIHandler {
	return &APIHandler{
		rankings: rankings,
		servers:  servers,
		history:  history,
		chat:     chat,
		tuning:   tuning,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetupRoutes registers the ranking endpoints on r.
func SetupRoutes(r *gin.RouterGroup, h *APIHandler) *APIHandler {
	r.GET("/ventures", h.Ventures)
	r.GET("/collectibles", h.Collectibles)
	r.GET("/scrips", h.Scrips)
	r.GET("/gearset", h.Gearset)
	r.GET("/job-sets/:group", h.JobGroupSet)
	r.GET("/resell", h.Resell)
	r.GET("/sale-stats", h.SaleStats)

	servers := r.Group("/servers")
	{
		servers.GET("", h.ListServers)
		servers.GET("/:name", h.GetServer)
	}
	return h
}

type serverQuery struct {
	Server string `form:"server" binding:"required"`
	N      int    `form:"n" binding:"min=0"`
}

type velocityQuery struct {
	serverQuery
	MinVelocity *int `form:"min_velocity" binding:"omitempty,min=0"`
}

type gearQuery struct {
	Server  string `form:"server" binding:"required"`
	Ilvl    int    `form:"ilvl" binding:"required,min=1"`
	Quality string `form:"quality"`
}

func (h *APIHandler) Ventures(c *gin.Context) {
	var q velocityQuery
	if !bindQuery(c, &q) {
		return
	}
	server, ok := h.server(c, q.Server, market.ScopeWorld)
	if !ok {
		return
	}
	res, err := h.rankings.Ventures(c.Request.Context(), server, q.N, minVelocity(q.MinVelocity, h.tuning.VentureMinVelocity))
	respond(c, res, err)
}

func (h *APIHandler) Collectibles(c *gin.Context) {
	var q struct {
		serverQuery
		Currency string `form:"currency" binding:"required"`
	}
	if !bindQuery(c, &q) {
		return
	}
	color, err := ranking.ParseScripColor(q.Currency)
	if err != nil {
		badRequest(c, err)
		return
	}
	server, ok := h.server(c, q.Server, market.AnyScope)
	if !ok {
		return
	}
	res, err := h.rankings.Collectibles(c.Request.Context(), color, server, q.N)
	respond(c, res, err)
}

func (h *APIHandler) Scrips(c *gin.Context) {
	var q struct {
		velocityQuery
		Currency string `form:"currency" binding:"required"`
	}
	if !bindQuery(c, &q) {
		return
	}
	color, err := ranking.ParseScripColor(q.Currency)
	if err != nil {
		badRequest(c, err)
		return
	}
	server, ok := h.server(c, q.Server, market.ScopeWorld)
	if !ok {
		return
	}
	res, err := h.rankings.ScripRewards(c.Request.Context(), server, color, q.N, minVelocity(q.MinVelocity, h.tuning.ScripMinVelocity))
	respond(c, res, err)
}

func (h *APIHandler) Gearset(c *gin.Context) {
	var q struct {
		gearQuery
		Job string `form:"job" binding:"required"`
	}
	if !bindQuery(c, &q) {
		return
	}
	if !ranking.IsJob(q.Job) {
		badRequest(c, fmt.Errorf("job must be a three letter abbreviation, got %q", q.Job))
		return
	}
	quality, err := parseQuality(q.Quality)
	if err != nil {
		badRequest(c, err)
		return
	}
	server, ok := h.server(c, q.Server, market.AnyScope)
	if !ok {
		return
	}
	res, err := h.rankings.Gearset(c.Request.Context(), q.Ilvl, q.Job, server, quality)
	respond(c, res, err)
}

func (h *APIHandler) JobGroupSet(c *gin.Context) {
	var q struct {
		gearQuery
		ByWorld bool `form:"by_world"`
	}
	if !bindQuery(c, &q) {
		return
	}
	group, err := ranking.ParseJobGroup(c.Param("group"))
	if err != nil {
		badRequest(c, err)
		return
	}
	quality, err := parseQuality(q.Quality)
	if err != nil {
		badRequest(c, err)
		return
	}
	server, ok := h.server(c, q.Server, market.AnyScope)
	if !ok {
		return
	}
	res, err := h.rankings.JobGroupSet(c.Request.Context(), q.Ilvl, server, group, quality, q.ByWorld)
	respond(c, res, err)
}

func (h *APIHandler) Resell(c *gin.Context) {
	var q struct {
		Home   string `form:"home" binding:"required"`
		Target string `form:"target" binding:"required"`
		Mode   string `form:"mode" binding:"required"`
		N      int    `form:"n" binding:"min=0"`
	}
	if !bindQuery(c, &q) {
		return
	}
	mode, err := ranking.ParseResellMode(q.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	home, ok := h.server(c, q.Home, market.ScopeWorld)
	if !ok {
		return
	}
	target, ok := h.server(c, q.Target, market.AnyScope)
	if !ok {
		return
	}
	res, err := h.rankings.Resell(c.Request.Context(), home, target, mode, q.N)
	respond(c, res, err)
}

func (h *APIHandler) SaleStats(c *gin.Context) {
	var q struct {
		Item   string `form:"item" binding:"required"`
		Server string `form:"server" binding:"required"`
		Days   int    `form:"days,default=7" binding:"min=1,max=90"`
	}
	if !bindQuery(c, &q) {
		return
	}
	server, ok := h.server(c, q.Server, market.AnyScope)
	if !ok {
		return
	}
	refs, err := h.history.Resolve([]string{q.Item})
	if err != nil {
		respond(c, nil, err)
		return
	}
	stats, err := h.history.SaleStatsFor(c.Request.Context(), refs[0], server, q.Days)
	if err != nil {
		respond(c, nil, err)
		return
	}
	respond(c, gin.H{
		"name":            stats.Name,
		"item_id":         stats.ItemID,
		"server":          stats.Server,
		"days":            stats.NDays,
		"nq_sales_gil":    stats.NQSalesGil,
		"hq_sales_gil":    stats.HQSalesGil,
		"nq_sales_volume": stats.NQSalesQuantity,
		"hq_sales_volume": stats.HQSalesQuantity,
		"nq_average":      stats.NQAverage(),
		"hq_average":      stats.HQAverage(),
		"entries":         stats.Entries,
	}, nil)
}

func (h *APIHandler) ListServers(c *gin.Context) {
	respond(c, gin.H{
		"worlds":       h.servers.Worlds(),
		"data_centers": h.servers.DataCenters(),
		"regions":      h.servers.Regions(),
	}, nil)
}

func (h *APIHandler) GetServer(c *gin.Context) {
	s, err := h.servers.Lookup(c.Param("name"))
	if err != nil {
		respond(c, nil, err)
		return
	}
	respond(c, gin.H{"name": s.Name, "scope": s.Scope.String()}, nil)
}

// Chat upgrades to a websocket and runs every text frame through the bot.
// Replies are JSON: {"message": ...} on success, {"error": ...} otherwise.
func (h *APIHandler) Chat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	user := c.Query("user")
	if user == "" {
		user = c.ClientIP()
	}
	ctx := c.Request.Context()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logx.Warn().Err(err).Str("user", user).Msg("websocket read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		msg, err := h.chat.Handle(ctx, user, string(data))
		switch {
		case err != nil:
			err = conn.WriteJSON(gin.H{"error": bot.Reply(err)})
		case msg != nil:
			err = conn.WriteJSON(gin.H{"message": msg, "text": msg.Text()})
		default:
			continue
		}
		if err != nil {
			logx.Warn().Err(err).Str("user", user).Msg("websocket write failed")
			return
		}
	}
}

// server resolves name and checks its scope against mask, writing the error
// response itself when it fails.
func (h *APIHandler) server(c *gin.Context, name string, mask market.Scope) (string, bool) {
	s, err := h.servers.Lookup(name)
	if err != nil {
		respond(c, nil, err)
		return "", false
	}
	if !mask.Allows(s.Scope) {
		badRequest(c, fmt.Errorf("%s is a %s, expected a %s", s.Name, s.Scope, mask))
		return "", false
	}
	return s.Name, true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func minVelocity(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func parseQuality(s string) (universalis.Quality, error) {
	switch strings.ToLower(s) {
	case "", "hq":
		return universalis.HQ, nil
	case "nq":
		return universalis.NQ, nil
	case "any":
		return universalis.AnyQuality, nil
	}
	return 0, fmt.Errorf("quality must be hq, nq or any, got %q", s)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		appErr := errx.Classify(err)
		if appErr.Status >= http.StatusInternalServerError {
			logx.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		}
		c.JSON(appErr.Status, gin.H{"error": appErr.Message, "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "msg": "ok", "data": data})
}
