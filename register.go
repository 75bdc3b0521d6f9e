package negotiate

import (
	"context"
	"net/http"
	"reflect"
)

// Void is used as a type parameter when a request has no parameters/body
// or a response has no body (results in 204 No Content).
type Void struct{}

// Handler is the core typed handler signature. The framework owns binding
// and negotiated rendering; handlers never see http.ResponseWriter or
// *http.Request.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// routeInfo holds a route being registered.
type routeInfo struct {
	method     string
	pattern    string
	status     int
	middleware []Middleware
	handler    http.Handler
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeInfo)

// WithStatus sets the default HTTP status code for the response.
func WithStatus(code int) RouteOption {
	return func(ri *routeInfo) {
		ri.status = code
	}
}

// WithMiddleware wraps this route only.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(ri *routeInfo) {
		ri.middleware = append(ri.middleware, mw...)
	}
}

// Registrar is the interface accepted by the registration functions.
// Both *Router and the registrar handed to a Module implement it.
type Registrar interface {
	addRoute(ri routeInfo)
	owner() *Router
}

func (r *Router) owner() *Router { return r }

// register is the internal generic registration function.
func register[Req, Resp any](reg Registrar, method, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	ri := routeInfo{method: method, pattern: pattern}
	for _, opt := range opts {
		opt(&ri)
	}

	// Void response → 204, otherwise 200.
	if ri.status == 0 {
		if reflect.TypeFor[Resp]() == reflect.TypeFor[Void]() {
			ri.status = http.StatusNoContent
		} else {
			ri.status = http.StatusOK
		}
	}

	ri.handler = buildHandler(reg.owner(), h, ri.status)
	mount(reg, ri)
}

// mount applies route middleware, then hands the route to reg.
func mount(reg Registrar, ri routeInfo) {
	for i := len(ri.middleware) - 1; i >= 0; i-- {
		ri.handler = ri.middleware[i](ri.handler)
	}
	reg.addRoute(ri)
}

// buildHandler wraps a typed Handler into an http.Handler: bind, validate,
// call, then render the response through negotiation.
func buildHandler[Req, Resp any](r *Router, h Handler[Req, Resp], defaultStatus int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		in, err := decodeRequest[Req](req, r.decoders)
		if err != nil {
			r.WriteError(w, req, WrapError(bindStatus(err), err))
			return
		}

		if err := r.validate(in); err != nil {
			r.WriteError(w, req, err)
			return
		}
		if err := runTypedValidator(req.Context(), r, in); err != nil {
			r.WriteError(w, req, err)
			return
		}

		resp, err := h(req.Context(), in)
		if err != nil {
			r.WriteError(w, req, err)
			return
		}

		if _, ok := any(resp).(*Void); ok || resp == nil {
			w.WriteHeader(defaultStatus)
			return
		}

		r.respond(w, req, resp, defaultStatus)
	})
}

// validate runs the SelfValidator and the router's global Validator.
func (r *Router) validate(in any) error {
	if sv, ok := in.(SelfValidator); ok {
		if err := sv.Validate(); err != nil {
			return err
		}
	}
	if r.validator != nil {
		return r.validator.Validate(in)
	}
	return nil
}

func runTypedValidator[T any](ctx context.Context, r *Router, in *T) error {
	v, err := locateValidator[T](r.validators)
	if err != nil || v == nil {
		return err
	}
	res := BindResult[T]{Data: in, Errors: v.Validate(ctx, in)}
	if res.IsValid() {
		return nil
	}
	return res.Problem()
}

// Get registers a GET handler.
func Get[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST handler.
func Post[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT handler.
func Put[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH handler.
func Patch[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE handler.
func Delete[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodDelete, pattern, h, opts...)
}

// Handle registers a plain http.Handler. Use it for handlers that need the
// request and response directly; they render models with Router.Negotiate.
func Handle(reg Registrar, method, pattern string, h http.Handler, opts ...RouteOption) {
	ri := routeInfo{method: method, pattern: pattern, handler: h}
	for _, opt := range opts {
		opt(&ri)
	}
	mount(reg, ri)
}
