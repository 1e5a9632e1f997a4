package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// Service performs entity CRUD for one session.
type Service struct {
	client *apiclient.Client
	cache  *querycache.Cache
	logger *logging.Logger
}

func NewService(client *apiclient.Client, cache *querycache.Cache, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{client: client, cache: cache, logger: logger.Component("resources")}
}

// List passes filters and pagination through to the API.
func (s *Service) List(ctx context.Context, def Definition, params apiclient.ListParams) (apiclient.Page[json.RawMessage], error) {
	key := querycache.NewKey(def.Name, params.Values().Encode())
	page, err := querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (apiclient.Page[json.RawMessage], error) {
		return apiclient.List[json.RawMessage](ctx, s.client, def.Path, def.ListKey, params)
	})
	if err != nil {
		return page, fmt.Errorf("resources: list %s: %w", def.Name, err)
	}
	return page, nil
}

// Get returns one record as the API sent it.
func (s *Service) Get(ctx context.Context, def Definition, id string) (json.RawMessage, error) {
	key := querycache.NewKey(def.Name, "id="+id)
	rec, err := querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (json.RawMessage, error) {
		var raw json.RawMessage
		err := s.client.Get(ctx, def.Path+"/"+url.PathEscape(id), nil, &raw)
		return unwrapData(raw), err
	})
	if err != nil {
		return nil, fmt.Errorf("resources: get %s %s: %w", def.Name, id, err)
	}
	return rec, nil
}

// Save creates (id == "") or updates a record. file is only sent for
// entities with an image field.
func (s *Service) Save(ctx context.Context, def Definition, id string, payload Payload, file *apiclient.File) (json.RawMessage, error) {
	creating := id == ""
	if n, ok := payload.(normalizer); ok {
		if err := n.Normalize(); err != nil {
			return nil, err
		}
	}
	if err := payload.Validate(creating); err != nil {
		return nil, err
	}
	if file != nil && !def.Multipart() {
		return nil, &ValidationError{Fields: map[string]string{"file": def.Name + " does not accept files"}}
	}
	if creating && def.ImageRequired && file == nil {
		return nil, &ValidationError{Fields: map[string]string{def.ImageField: "an image is required"}}
	}

	method, path := http.MethodPost, def.Path
	if !creating {
		method, path = http.MethodPut, def.Path+"/"+url.PathEscape(id)
	}

	var out json.RawMessage
	var err error
	if file != nil {
		var form *apiclient.Form
		form, err = formFrom(payload)
		if err == nil {
			f := *file
			f.Field = def.ImageField
			form.Attach(f)
			err = s.client.DoMultipart(ctx, method, path, form, &out)
		}
	} else {
		err = s.client.Do(ctx, method, path, payload, &out)
	}
	if err != nil {
		s.logger.Error("save failed", "entity", def.Name, "id", id, "error", err)
		return nil, fmt.Errorf("resources: save %s: %w", def.Name, err)
	}
	s.cache.Invalidate(def.Name)
	s.logger.Info("saved", "entity", def.Name, "id", id, "created", creating)
	return unwrapData(out), nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, def Definition, id string) error {
	if err := s.client.Do(ctx, http.MethodDelete, def.Path+"/"+url.PathEscape(id), nil, nil); err != nil {
		s.logger.Error("delete failed", "entity", def.Name, "id", id, "error", err)
		return fmt.Errorf("resources: delete %s: %w", def.Name, err)
	}
	s.cache.Invalidate(def.Name)
	s.logger.Info("deleted", "entity", def.Name, "id", id)
	return nil
}

// formFrom flattens a payload into form fields. Scalars are written as
// text; arrays and objects as JSON.
func formFrom(payload Payload) (*apiclient.Form, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("resources: marshal payload: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("resources: flatten payload: %w", err)
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	form := &apiclient.Form{}
	for _, name := range names {
		v := fields[name]
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("resources: field %s: %w", name, err)
		}
		switch t := decoded.(type) {
		case nil:
			continue
		case string:
			form.Set(name, t)
		case bool:
			form.Set(name, strconv.FormatBool(t))
		case float64:
			form.Set(name, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			form.Set(name, string(v))
		}
	}
	return form, nil
}

// unwrapData strips a {"data": ...} envelope.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Data) > 0 {
		return env.Data
	}
	return raw
}
