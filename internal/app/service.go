package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"multilookup/api/internal/auth"
	"multilookup/api/internal/config"
	"multilookup/api/internal/fetch"
	"multilookup/api/internal/lookup"
	"multilookup/api/internal/rbac"
	"multilookup/api/internal/search"
	"multilookup/api/internal/util"
	"multilookup/api/internal/widget"
)

const defaultSearchLimit = 20

// Session is the authenticated host making a request.
type Session struct {
	Token     string
	HostID    string
	HostName  string
	Role      rbac.Role
	JTI       string
	ExpiresAt time.Time
}

// WidgetInput creates or reconfigures a widget.
type WidgetInput struct {
	Collection    string  `json:"targetEntity"`
	DisplayColumn string  `json:"displayColumn"`
	SortColumn    string  `json:"sortColumn"`
	Disabled      bool    `json:"disabled"`
	Value         *string `json:"value"`
}

func (in WidgetInput) config() widget.Config {
	return widget.Config{
		Query: fetch.Query{
			Collection:    in.Collection,
			DisplayColumn: in.DisplayColumn,
			SortColumn:    in.SortColumn,
		},
		Disabled: in.Disabled,
	}
}

// WidgetView is the wire form of a widget.
type WidgetView struct {
	ID string `json:"id"`
	widget.View
}

// ToggleResult is returned after a toggle.
type ToggleResult struct {
	Value        *string  `json:"value"`
	SelectedKeys []string `json:"selectedKeys"`
}

type pinger interface {
	Ping(context.Context) error
}

type optionIndex interface {
	Search(source, text string, limit int, options []lookup.Option) []lookup.Option
	IndexOptions(source string, options []lookup.Option)
}

type widgetSession struct {
	id      string
	owner   string
	widget  *widget.Widget
	created time.Time
}

type Service struct {
	cfg     config.Config
	fetcher widget.OptionFetcher
	db      pinger
	index   optionIndex

	// fetches outlive the request that configured them
	baseCtx context.Context

	mu      sync.RWMutex
	widgets map[string]*widgetSession
}

// NewService wires the widget registry. db may be nil; a nil index falls
// back to in-memory fuzzy matching.
func NewService(ctx context.Context, cfg config.Config, fetcher widget.OptionFetcher, db pinger, index optionIndex) *Service {
	if ctx == nil {
		ctx = context.Background()
	}
	if index == nil {
		index = search.NewService(nil)
	}
	return &Service{
		cfg:     cfg,
		fetcher: fetcher,
		db:      db,
		index:   index,
		baseCtx: ctx,
		widgets: make(map[string]*widgetSession),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Ping(ctx)
}

func (s *Service) SessionFromToken(_ context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		HostID:    claims.Sub,
		HostName:  claims.Name,
		Role:      rbac.Normalize(claims.Role),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// IssueHostToken signs a token for a host integration.
func (s *Service) IssueHostToken(hostID, hostName string, role rbac.Role) (string, error) {
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "subject is required", nil)
	}
	return auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  hostID,
		Name: hostName,
		Role: string(role),
		JTI:  util.NewID("jti"),
		Exp:  time.Now().Add(s.cfg.TokenTTL).Unix(),
	})
}

// CreateWidget registers a widget and starts its first fetch. The returned
// channel closes once that fetch settles.
func (s *Service) CreateWidget(session Session, input WidgetInput) (WidgetView, <-chan struct{}) {
	id := util.NewID("wdg")
	w := widget.New(s.fetcher,
		widget.WithNotifier(func(value *string) {
			if value == nil {
				log.Printf("widget %s: value cleared", id)
				return
			}
			log.Printf("widget %s: value changed to %q", id, *value)
		}),
		widget.WithFetchHook(s.indexOptions),
	)
	w.SetValue(input.Value)
	done := w.Configure(s.baseCtx, input.config())

	s.mu.Lock()
	s.widgets[id] = &widgetSession{id: id, owner: session.HostID, widget: w, created: time.Now()}
	s.mu.Unlock()

	return WidgetView{ID: id, View: w.View()}, done
}

func (s *Service) GetWidget(session Session, id string) (WidgetView, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return WidgetView{}, err
	}
	return WidgetView{ID: ws.id, View: ws.widget.View()}, nil
}

func (s *Service) ConfigureWidget(session Session, id string, input WidgetInput) (<-chan struct{}, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return nil, err
	}
	return ws.widget.Configure(s.baseCtx, input.config()), nil
}

func (s *Service) RefreshWidget(session Session, id string) (<-chan struct{}, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return nil, err
	}
	return ws.widget.Refresh(s.baseCtx), nil
}

func (s *Service) SetWidgetValue(session Session, id string, value *string) (WidgetView, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return WidgetView{}, err
	}
	ws.widget.SetValue(value)
	return WidgetView{ID: ws.id, View: ws.widget.View()}, nil
}

func (s *Service) ToggleWidget(session Session, id string, toggle lookup.Toggle) (ToggleResult, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return ToggleResult{}, err
	}
	value, err := ws.widget.Toggle(toggle)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Value: value, SelectedKeys: ws.widget.View().SelectedKeys}, nil
}

// SearchOptions filters the widget's current options, ghosts included.
func (s *Service) SearchOptions(session Session, id, text string, limit int) ([]lookup.Option, error) {
	ws, err := s.lookupWidget(session, id)
	if err != nil {
		return nil, err
	}
	view := ws.widget.View()
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.index.Search(view.Query.Key(), text, limit, view.Options), nil
}

func (s *Service) DeleteWidget(session Session, id string) error {
	if _, err := s.lookupWidget(session, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.widgets, id)
	s.mu.Unlock()
	return nil
}

// Reconcile runs a stateless reconciliation for hosts that fetch their own
// option set.
func (s *Service) Reconcile(value *string, options []lookup.Option) lookup.Reconciliation {
	return lookup.Reconcile(value, options)
}

func (s *Service) lookupWidget(session Session, id string) (*widgetSession, error) {
	s.mu.RLock()
	ws, ok := s.widgets[id]
	s.mu.RUnlock()
	if !ok || ws.owner != session.HostID {
		return nil, widgetNotFound(id)
	}
	return ws, nil
}

func (s *Service) indexOptions(q fetch.Query, options []lookup.Option) {
	s.index.IndexOptions(q.Key(), options)
}
