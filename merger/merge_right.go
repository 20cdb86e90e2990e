package merger

import (
	"github.com/buildbuildio/cobble/config"
	"github.com/buildbuildio/cobble/descriptor"
	"github.com/samber/lo"
)

// MergeRight returns a new set where b takes precedence over a:
//   - scalars set in b win, otherwise a's value is kept
//   - named entries are united, b's entry replaces a's whole entry on collision
//   - lists are a followed by b without duplicates, first occurrence wins
//   - descriptors are united
//
// Neither input is modified.
func MergeRight(a, b *config.ConfigSet) *config.ConfigSet {
	return &config.ConfigSet{
		Config: mergeConfig(a.Config, b.Config),
		Extensions: config.Extensions{
			Descriptors: mergeDescriptors(a.Extensions.Descriptors, b.Extensions.Descriptors),
		},
	}
}

func mergeConfig(a, b *config.Config) *config.Config {
	if a == nil {
		a = &config.Config{}
	}
	if b == nil {
		b = &config.Config{}
	}

	return &config.Config{
		Schema: config.RootSchema{
			Query:        right(a.Schema.Query, b.Schema.Query),
			Mutation:     right(a.Schema.Mutation, b.Schema.Mutation),
			Subscription: right(a.Schema.Subscription, b.Schema.Subscription),
		},
		Server:   mergeServer(a.Server, b.Server),
		Upstream: mergeUpstream(a.Upstream, b.Upstream),
		Types:    mergeEntries(a.Types, b.Types),
	}
}

func mergeServer(a, b config.Server) config.Server {
	return config.Server{
		Hostname:                 right(a.Hostname, b.Hostname),
		Port:                     right(a.Port, b.Port),
		Workers:                  right(a.Workers, b.Workers),
		EnableGraphiQL:           right(a.EnableGraphiQL, b.EnableGraphiQL),
		EnableIntrospection:      right(a.EnableIntrospection, b.EnableIntrospection),
		EnableCacheControlHeader: right(a.EnableCacheControlHeader, b.EnableCacheControlHeader),
		GlobalResponseTimeout:    right(a.GlobalResponseTimeout, b.GlobalResponseTimeout),
		Script:                   right(a.Script, b.Script),
		ResponseHeaders:          mergeEntries(a.ResponseHeaders, b.ResponseHeaders),
		Vars:                     mergeEntries(a.Vars, b.Vars),
		Cors:                     mergeCors(a.Cors, b.Cors),
	}
}

func mergeCors(a, b *config.Cors) *config.Cors {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	return &config.Cors{
		AllowCredentials:    right(a.AllowCredentials, b.AllowCredentials),
		AllowPrivateNetwork: right(a.AllowPrivateNetwork, b.AllowPrivateNetwork),
		MaxAge:              right(a.MaxAge, b.MaxAge),
		AllowHeaders:        mergeList(a.AllowHeaders, b.AllowHeaders),
		AllowMethods:        mergeList(a.AllowMethods, b.AllowMethods),
		AllowOrigins:        mergeList(a.AllowOrigins, b.AllowOrigins),
		ExposeHeaders:       mergeList(a.ExposeHeaders, b.ExposeHeaders),
		Vary:                mergeList(a.Vary, b.Vary),
	}
}

func mergeUpstream(a, b config.Upstream) config.Upstream {
	return config.Upstream{
		BaseURL:        right(a.BaseURL, b.BaseURL),
		Timeout:        right(a.Timeout, b.Timeout),
		ConnectTimeout: right(a.ConnectTimeout, b.ConnectTimeout),
		HTTP2Only:      right(a.HTTP2Only, b.HTTP2Only),
		UserAgent:      right(a.UserAgent, b.UserAgent),
		AllowedHeaders: mergeList(a.AllowedHeaders, b.AllowedHeaders),
		Hosts:          mergeEntries(a.Hosts, b.Hosts),
	}
}

func mergeDescriptors(a, b descriptor.Set) descriptor.Set {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	return a.Union(b)
}

// right returns b when it was set
func right[T any](a, b *T) *T {
	if b != nil {
		return b
	}
	return a
}

func mergeEntries[K comparable, V any](a, b map[K]V) map[K]V {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	res := make(map[K]V, len(a)+len(b))
	for k, v := range a {
		res[k] = v
	}
	for k, v := range b {
		res[k] = v
	}

	return res
}

func mergeList[T comparable](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	res := make([]T, 0, len(a)+len(b))
	res = append(res, a...)
	res = append(res, b...)

	return lo.Uniq(res)
}
