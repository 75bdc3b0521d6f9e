// Package negotiate is a small HTTP framework on net/http built around
// response content negotiation. Handlers return models; the framework picks
// the representation the client asked for in its Accept header and renders
// it with the matching negotiator.
//
// A negotiator answers two questions: can it render a given Accept entry,
// and how to write the body:
//
//	type Negotiator interface {
//	    CanHandle(accept MediaType) bool
//	    Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, model any) error
//	}
//
// Accept entries are ranked by q value, then by number of media type
// parameters, then by header order. Registered negotiators are asked in
// registration order; when none matches, or the client states no
// preference, the default negotiator renders the model. The built-in
// default writes JSON as "application/json; charset=utf-8". XML and YAML
// negotiators are registered after any user negotiators.
//
//	r := negotiate.New(negotiate.WithNegotiator(csvNegotiator{}))
//	r.Mount("/actors", actorsModule{store: store})
//
// Routes are grouped in modules and registered with typed handlers, whose
// requests are bound from path, query and header tags and a body decoded by
// its Content-Type:
//
//	func (m actorsModule) Register(reg negotiate.Registrar) {
//	    negotiate.Get(reg, "/{id}", m.get)
//	    negotiate.Post(reg, "", m.create, negotiate.WithStatus(http.StatusCreated))
//	}
//
// Plain handlers registered with Handle render through Router.Negotiate.
// The selection engine is usable on its own through ParseAccept, Registry,
// Select and Dispatch.
package negotiate
