package main

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bjaus/negotiate"
)

// Actor is the sample domain entity.
type Actor struct {
	XMLName xml.Name `json:"-" yaml:"-" xml:"actor"`
	ID      int      `json:"id" yaml:"id" xml:"id"`
	Name    string   `json:"name" yaml:"name" xml:"name"`
	Age     int      `json:"age" yaml:"age" xml:"age"`
}

func validateActor(_ context.Context, a *Actor) []negotiate.ValidationError {
	var errs []negotiate.ValidationError
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, negotiate.ValidationError{Field: "name", Message: "name is required"})
	}
	if a.Age <= 0 {
		errs = append(errs, negotiate.ValidationError{Field: "age", Message: "age must be positive"})
	}
	return errs
}

type actorStore struct {
	mu     sync.RWMutex
	actors map[int]Actor
	nextID int
}

func newActorStore() *actorStore {
	return &actorStore{
		actors: map[int]Actor{
			1: {ID: 1, Name: "Paul Newman", Age: 83},
			2: {ID: 2, Name: "Joan Crawford", Age: 72},
		},
		nextID: 3,
	}
}

func (s *actorStore) list() []Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Actor) int { return a.ID - b.ID })
	return out
}

func (s *actorStore) get(id int) (Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	return a, ok
}

func (s *actorStore) create(a Actor) Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	s.nextID++
	s.actors[a.ID] = a
	return a
}

func (s *actorStore) update(id int, a Actor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[id]; !ok {
		return false
	}
	a.ID = id
	s.actors[id] = a
	return true
}

// actorsModule mixes typed handlers with plain handlers that negotiate
// their responses themselves.
type actorsModule struct {
	router *negotiate.Router
	store  *actorStore
}

func (m *actorsModule) Register(reg negotiate.Registrar) {
	negotiate.Handle(reg, http.MethodGet, "", http.HandlerFunc(m.list))
	negotiate.Get(reg, "/{id}", m.get)
	negotiate.Handle(reg, http.MethodPost, "", http.HandlerFunc(m.create))
	negotiate.Handle(reg, http.MethodPut, "/{id}", http.HandlerFunc(m.update))
	negotiate.Get(reg, "/export", m.export)
}

// list always answers JSON.
func (m *actorsModule) list(w http.ResponseWriter, r *http.Request) {
	if err := m.router.JSON(w, r, http.StatusOK, m.store.list()); err != nil {
		m.router.WriteError(w, r, err)
	}
}

type actorByIDReq struct {
	ID int `path:"id"`
}

func (m *actorsModule) get(_ context.Context, req *actorByIDReq) (*Actor, error) {
	a, ok := m.store.get(req.ID)
	if !ok {
		return nil, negotiate.Errorf(http.StatusNotFound, "actor %d not found", req.ID)
	}
	return &a, nil
}

func (m *actorsModule) create(w http.ResponseWriter, r *http.Request) {
	res, err := negotiate.Bind[Actor](m.router, r)
	if err != nil {
		m.router.WriteError(w, r, err)
		return
	}
	if !res.IsValid() {
		m.router.WriteError(w, r, res.Problem())
		return
	}

	created := m.store.create(*res.Data)
	w.Header().Set("Location", fmt.Sprintf("/actors/%d", created.ID))
	if err := m.router.Negotiate(w, r, http.StatusCreated, &created); err != nil {
		m.router.WriteError(w, r, err)
	}
}

func (m *actorsModule) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		m.router.WriteError(w, r, negotiate.Errorf(http.StatusBadRequest, "invalid actor id %q", r.PathValue("id")))
		return
	}

	res, err := negotiate.Bind[Actor](m.router, r)
	if err != nil {
		m.router.WriteError(w, r, err)
		return
	}
	if !res.IsValid() {
		m.router.WriteError(w, r, res.Problem())
		return
	}

	if !m.store.update(id, *res.Data) {
		m.router.WriteError(w, r, negotiate.Errorf(http.StatusNotFound, "actor %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *actorsModule) export(ctx context.Context, _ *negotiate.Void) (*negotiate.Stream, error) {
	pr, pw := io.Pipe()
	actors := m.store.list()
	go func() {
		pw.CloseWithError(writeActorsCSV(ctx, pw, actors))
	}()
	return &negotiate.Stream{ContentType: "text/csv; charset=utf-8", Body: pr}, nil
}

// csvNegotiator renders actors as CSV for text/csv clients.
type csvNegotiator struct{}

func (csvNegotiator) CanHandle(accept negotiate.MediaType) bool {
	return accept.Matches("text/csv")
}

func (csvNegotiator) ContentType() string { return "text/csv; charset=utf-8" }

func (csvNegotiator) Handle(ctx context.Context, w http.ResponseWriter, _ *http.Request, model any) error {
	switch v := model.(type) {
	case *Actor:
		return writeActorsCSV(ctx, w, []Actor{*v})
	case []Actor:
		return writeActorsCSV(ctx, w, v)
	default:
		return fmt.Errorf("csv: cannot render %T", model)
	}
}

func writeActorsCSV(ctx context.Context, w io.Writer, actors []Actor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "age"}); err != nil {
		return err
	}
	for _, a := range actors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write([]string{strconv.Itoa(a.ID), a.Name, strconv.Itoa(a.Age)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
