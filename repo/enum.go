package repo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// enumKind tags what an open context buffers, so each Pull variant only
// consumes the matching context.
type enumKind int

const (
	enumInstancesWithPath enumKind = iota
	enumPaths
	enumQueryInstances
)

// enumContext is the server-side state behind one enumeration token: the
// unconsumed remainder of the result sequence, the kind of results it holds,
// and the last touch time for idle expiry. The context table is its sole
// mutator.
type enumContext struct {
	token     string
	namespace string
	kind      enumKind

	instances []*cim.Instance
	paths     []*cim.ObjectPath

	queryResultClass *cim.Class
	touched          time.Time
}

func (k enumKind) label() string {
	switch k {
	case enumPaths:
		return "paths"
	case enumQueryInstances:
		return "pathless instances"
	default:
		return "instances with paths"
	}
}

// contextTable owns all open enumeration contexts, keyed by token.
type contextTable struct {
	mu   sync.Mutex
	open map[string]*enumContext
}

func (t *contextTable) init() {
	t.open = make(map[string]*enumContext)
}

func (t *contextTable) add(c *enumContext) string {
	c.token = uuid.NewString()
	c.touched = time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[c.token] = c
	return c.token
}

// live fetches a context for a Pull, enforcing idle expiry. Assumes t.mu
// held.
func (t *contextTable) live(token string, idle time.Duration) (*enumContext, error) {
	c, ok := t.open[token]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidEnumerationContext, "context %q", token)
	}
	if idle > 0 && time.Since(c.touched) > idle {
		delete(t.open, token)
		return nil, errors.Wrapf(errors.ErrInvalidEnumerationContext, "context %q expired", token)
	}
	c.touched = time.Now()
	return c, nil
}

// pullInstances consumes up to n buffered instances from a context of the
// given kind. The remaining-sequence state is only ever touched under t.mu,
// so concurrent Pulls on one token hand out disjoint pages. The second
// return is true on natural exhaustion, which removes the token.
func (t *contextTable) pullInstances(token string, idle time.Duration, kind enumKind, n int) ([]*cim.Instance, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.live(token, idle)
	if err != nil {
		return nil, false, err
	}
	if c.kind != kind {
		return nil, false, errors.Wrapf(errors.ErrInvalidEnumerationContext,
			"context %q does not hold %s", token, kind.label())
	}
	if n > len(c.instances) {
		n = len(c.instances)
	}
	page := c.instances[:n]
	c.instances = c.instances[n:]
	if len(c.instances) == 0 {
		delete(t.open, token)
		return page, true, nil
	}
	return page, false, nil
}

// pullPaths is the path-context counterpart of pullInstances.
func (t *contextTable) pullPaths(token string, idle time.Duration, n int) ([]*cim.ObjectPath, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.live(token, idle)
	if err != nil {
		return nil, false, err
	}
	if c.kind != enumPaths {
		return nil, false, errors.Wrapf(errors.ErrInvalidEnumerationContext,
			"context %q does not hold paths", token)
	}
	if n > len(c.paths) {
		n = len(c.paths)
	}
	page := c.paths[:n]
	c.paths = c.paths[n:]
	if len(c.paths) == 0 {
		delete(t.open, token)
		return page, true, nil
	}
	return page, false, nil
}

// close removes a context for CloseEnumeration. Closing a token that does
// not correspond to a live buffered sequence is local misuse: after natural
// exhaustion no token exists anymore, and the protocol never sees the close.
func (t *contextTable) close(token string, idle time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.open[token]
	if !ok {
		return errors.Wrapf(errors.ErrUsage, "no open enumeration context %q", token)
	}
	delete(t.open, token)
	if idle > 0 && time.Since(c.touched) > idle {
		return errors.Wrapf(errors.ErrInvalidEnumerationContext, "context %q expired", token)
	}
	return nil
}

// InstancesPage is one page of an instance enumeration. Context is empty
// exactly when EndOfSequence is true.
type InstancesPage struct {
	Instances     []*cim.Instance
	EndOfSequence bool
	Context       string
}

// PathsPage is one page of a path enumeration.
type PathsPage struct {
	Paths         []*cim.ObjectPath
	EndOfSequence bool
	Context       string
}

// QueryPage is the first page of a query-style enumeration. QueryResultClass
// is only populated when requested on open; it is generated once per context
// and reused unchanged for the context's lifetime.
type QueryPage struct {
	Instances        []*cim.Instance
	EndOfSequence    bool
	Context          string
	QueryResultClass *cim.Class
}

func (r *Repository) checkPull() error {
	if r.opts.DisablePull {
		return errors.Wrap(errors.ErrNotSupported, "pull operations are disabled")
	}
	return nil
}

func (r *Repository) pageSize(max int) int {
	if max <= 0 {
		return r.opts.DefaultMaxObjectCount
	}
	return max
}

// openInstances pages a full instance result. Small results are returned
// whole with end-of-sequence and no context.
func (r *Repository) openInstances(namespace string, kind enumKind, all []*cim.Instance, queryClass *cim.Class, max int) InstancesPage {
	n := r.pageSize(max)
	if len(all) <= n {
		return InstancesPage{Instances: all, EndOfSequence: true}
	}
	ctx := &enumContext{namespace: namespace, kind: kind, instances: all[n:], queryResultClass: queryClass}
	token := r.contexts.add(ctx)
	r.log.Debugw("enumeration context opened",
		"namespace", namespace, "context", token, "buffered", len(all)-n)
	return InstancesPage{Instances: all[:n], Context: token}
}

func (r *Repository) openPaths(namespace string, all []*cim.ObjectPath, max int) PathsPage {
	n := r.pageSize(max)
	if len(all) <= n {
		return PathsPage{Paths: all, EndOfSequence: true}
	}
	ctx := &enumContext{namespace: namespace, kind: enumPaths, paths: all[n:]}
	token := r.contexts.add(ctx)
	r.log.Debugw("enumeration context opened",
		"namespace", namespace, "context", token, "buffered", len(all)-n)
	return PathsPage{Paths: all[:n], Context: token}
}

// OpenEnumerateInstances starts a paged instance enumeration.
func (r *Repository) OpenEnumerateInstances(namespace, classname string, deepInheritance bool, opts GetOptions, maxObjectCount int) (InstancesPage, error) {
	if err := r.checkPull(); err != nil {
		return InstancesPage{}, err
	}
	all, err := r.EnumerateInstances(namespace, classname, deepInheritance, opts)
	if err != nil {
		return InstancesPage{}, err
	}
	return r.openInstances(namespace, enumInstancesWithPath, all, nil, maxObjectCount), nil
}

// OpenEnumerateInstancePaths starts a paged path enumeration.
func (r *Repository) OpenEnumerateInstancePaths(namespace, classname string, maxObjectCount int) (PathsPage, error) {
	if err := r.checkPull(); err != nil {
		return PathsPage{}, err
	}
	all, err := r.EnumerateInstanceNames(namespace, classname)
	if err != nil {
		return PathsPage{}, err
	}
	return r.openPaths(namespace, all, maxObjectCount), nil
}

// OpenAssociatorInstances starts a paged associator traversal.
func (r *Repository) OpenAssociatorInstances(source *cim.ObjectPath, f AssociatorFilter, opts GetOptions, maxObjectCount int) (InstancesPage, error) {
	if err := r.checkPull(); err != nil {
		return InstancesPage{}, err
	}
	all, err := r.Associators(source, f, opts)
	if err != nil {
		return InstancesPage{}, err
	}
	return r.openInstances(source.Namespace, enumInstancesWithPath, all, nil, maxObjectCount), nil
}

// OpenAssociatorInstancePaths starts a paged associator-path traversal.
func (r *Repository) OpenAssociatorInstancePaths(source *cim.ObjectPath, f AssociatorFilter, maxObjectCount int) (PathsPage, error) {
	if err := r.checkPull(); err != nil {
		return PathsPage{}, err
	}
	all, err := r.AssociatorNames(source, f)
	if err != nil {
		return PathsPage{}, err
	}
	return r.openPaths(source.Namespace, all, maxObjectCount), nil
}

// OpenReferenceInstances starts a paged reference traversal.
func (r *Repository) OpenReferenceInstances(source *cim.ObjectPath, f ReferenceFilter, opts GetOptions, maxObjectCount int) (InstancesPage, error) {
	if err := r.checkPull(); err != nil {
		return InstancesPage{}, err
	}
	all, err := r.References(source, f, opts)
	if err != nil {
		return InstancesPage{}, err
	}
	return r.openInstances(source.Namespace, enumInstancesWithPath, all, nil, maxObjectCount), nil
}

// OpenReferenceInstancePaths starts a paged reference-path traversal.
func (r *Repository) OpenReferenceInstancePaths(source *cim.ObjectPath, f ReferenceFilter, maxObjectCount int) (PathsPage, error) {
	if err := r.checkPull(); err != nil {
		return PathsPage{}, err
	}
	all, err := r.ReferenceNames(source, f)
	if err != nil {
		return PathsPage{}, err
	}
	return r.openPaths(source.Namespace, all, maxObjectCount), nil
}

// PullInstancesWithPath consumes the next page of an instance enumeration
// context. Pulling an unknown, closed, expired, or exhausted token fails
// InvalidEnumerationContext.
func (r *Repository) PullInstancesWithPath(context string, maxObjectCount int) (InstancesPage, error) {
	return r.pullInstances(context, enumInstancesWithPath, maxObjectCount)
}

// PullInstances consumes the next page of a query enumeration context.
func (r *Repository) PullInstances(context string, maxObjectCount int) (InstancesPage, error) {
	return r.pullInstances(context, enumQueryInstances, maxObjectCount)
}

func (r *Repository) pullInstances(context string, kind enumKind, maxObjectCount int) (InstancesPage, error) {
	if err := r.checkPull(); err != nil {
		return InstancesPage{}, err
	}
	page, done, err := r.contexts.pullInstances(context, r.opts.ContextIdleTimeout, kind, r.pageSize(maxObjectCount))
	if err != nil {
		return InstancesPage{}, err
	}
	if done {
		return InstancesPage{Instances: page, EndOfSequence: true}, nil
	}
	return InstancesPage{Instances: page, Context: context}, nil
}

// PullInstancePaths consumes the next page of a path enumeration context.
func (r *Repository) PullInstancePaths(context string, maxObjectCount int) (PathsPage, error) {
	if err := r.checkPull(); err != nil {
		return PathsPage{}, err
	}
	page, done, err := r.contexts.pullPaths(context, r.opts.ContextIdleTimeout, r.pageSize(maxObjectCount))
	if err != nil {
		return PathsPage{}, err
	}
	if done {
		return PathsPage{Paths: page, EndOfSequence: true}, nil
	}
	return PathsPage{Paths: page, Context: context}, nil
}

// CloseEnumeration cancels an open enumeration. A token that no longer
// corresponds to a live buffered sequence (never issued, already closed, or
// naturally exhausted) is local misuse, not a protocol error: no token
// survives natural exhaustion.
func (r *Repository) CloseEnumeration(context string) error {
	if context == "" {
		return errors.Wrap(errors.ErrUsage, "empty enumeration context")
	}
	if err := r.contexts.close(context, r.opts.ContextIdleTimeout); err != nil {
		return err
	}
	r.log.Debugw("enumeration context closed", "context", context)
	return nil
}

// OpenContextCount reports the number of live enumeration contexts.
func (r *Repository) OpenContextCount() int {
	r.contexts.mu.Lock()
	defer r.contexts.mu.Unlock()
	return len(r.contexts.open)
}

// OpenQueryInstances executes a query and starts a paged, pathless instance
// enumeration over its results. Only the basic select-from form of WQL and
// DMTF:CQL is supported: `SELECT <props|*> FROM <classname>`. When
// returnQueryResultClass is set, the first page carries a class describing
// the result rows; it is generated once and reused unchanged for the
// context's lifetime.
func (r *Repository) OpenQueryInstances(namespace, queryLanguage, query string, returnQueryResultClass bool, maxObjectCount int) (QueryPage, error) {
	if err := r.checkPull(); err != nil {
		return QueryPage{}, err
	}
	switch strings.ToUpper(strings.TrimSpace(queryLanguage)) {
	case "WQL", "DMTF:CQL", "CQL":
	default:
		return QueryPage{}, errors.Wrapf(errors.ErrNotSupported,
			"query language %q", queryLanguage)
	}

	classname, props, err := parseSelectQuery(query)
	if err != nil {
		return QueryPage{}, err
	}

	opts := AllProperties
	opts.PropertyList = props
	all, err := r.EnumerateInstances(namespace, classname, true, opts)
	if err != nil {
		return QueryPage{}, err
	}
	for _, inst := range all {
		inst.Path = nil
	}

	var queryClass *cim.Class
	if returnQueryResultClass {
		resolved, err := r.GetClass(namespace, classname, GetOptions{
			IncludeQualifiers:  false,
			IncludeClassOrigin: false,
			PropertyList:       props,
		})
		if err != nil {
			return QueryPage{}, err
		}
		queryClass = resolved
		queryClass.SuperClass = ""
		queryClass.Methods = nil
	}

	page := r.openInstances(namespace, enumQueryInstances, all, queryClass, maxObjectCount)
	return QueryPage{
		Instances:        page.Instances,
		EndOfSequence:    page.EndOfSequence,
		Context:          page.Context,
		QueryResultClass: queryClass,
	}, nil
}

// parseSelectQuery extracts the property list and class name from a basic
// select statement.
func parseSelectQuery(query string) (classname string, props []string, err error) {
	fields := strings.Fields(query)
	if len(fields) < 4 || !strings.EqualFold(fields[0], "select") {
		return "", nil, errors.Wrapf(errors.ErrInvalidParameter, "malformed query %q", query)
	}
	fromIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f, "from") {
			fromIdx = i
			break
		}
	}
	if fromIdx < 2 || fromIdx+1 >= len(fields) {
		return "", nil, errors.Wrapf(errors.ErrInvalidParameter, "malformed query %q", query)
	}

	selectList := strings.Join(fields[1:fromIdx], "")
	if selectList != "*" {
		for _, p := range strings.Split(selectList, ",") {
			if p = strings.TrimSpace(p); p != "" {
				props = append(props, p)
			}
		}
		if len(props) == 0 {
			return "", nil, errors.Wrapf(errors.ErrInvalidParameter, "empty select list in %q", query)
		}
	}
	return fields[fromIdx+1], props, nil
}
