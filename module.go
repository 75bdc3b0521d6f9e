package negotiate

// Module is a unit of related routes. Register is called once when the
// module is mounted; routes it registers are placed under the mount prefix.
type Module interface {
	Register(reg Registrar)
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(reg Registrar)

// Register calls f.
func (f ModuleFunc) Register(reg Registrar) { f(reg) }

// ModuleOption configures a mounted module.
type ModuleOption func(*moduleRegistrar)

// WithModuleMiddleware wraps every route of the module.
func WithModuleMiddleware(mw ...Middleware) ModuleOption {
	return func(m *moduleRegistrar) {
		m.middleware = append(m.middleware, mw...)
	}
}

// moduleRegistrar is the Registrar a module registers its routes on.
type moduleRegistrar struct {
	parent     Registrar
	prefix     string
	middleware []Middleware
}

// Mount registers the module m under prefix. An empty prefix mounts at the
// root.
func (r *Router) Mount(prefix string, m Module, opts ...ModuleOption) {
	mountModule(r, prefix, m, opts...)
}

// MountModule mounts m on any Registrar, so modules can nest.
func MountModule(reg Registrar, prefix string, m Module, opts ...ModuleOption) {
	mountModule(reg, prefix, m, opts...)
}

func mountModule(parent Registrar, prefix string, m Module, opts ...ModuleOption) {
	mr := &moduleRegistrar{parent: parent, prefix: prefix}
	for _, opt := range opts {
		opt(mr)
	}
	m.Register(mr)
}

// addRoute wraps the route in the module's middleware and passes it up,
// so enclosing modules wrap it in theirs.
func (m *moduleRegistrar) addRoute(ri routeInfo) {
	ri.pattern = m.prefix + ri.pattern
	for i := len(m.middleware) - 1; i >= 0; i-- {
		ri.handler = m.middleware[i](ri.handler)
	}
	m.parent.addRoute(ri)
}

func (m *moduleRegistrar) owner() *Router { return m.parent.owner() }
