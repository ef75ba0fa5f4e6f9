package contract

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// RegisterConsumer records that consumerRepo depends on the (method, path)
// endpoint of producerRepo. The endpoint must be part of the producer's
// currently stored endpoint set.
func (s *Service) RegisterConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (*Consumer, error) {
	method = strings.ToUpper(method)

	producer, err := s.store.GetRepo(ctx, producerRepo)
	if err != nil {
		return nil, fmt.Errorf("loading producer: %w", err)
	}
	if producer == nil {
		return nil, fmt.Errorf("producer %s: %w", producerRepo, ErrNotRegistered)
	}

	endpoints, err := s.store.GetEndpoints(ctx, producerRepo)
	if err != nil {
		return nil, fmt.Errorf("loading producer endpoints: %w", err)
	}
	found := false
	for _, ep := range endpoints {
		if ep.Method == method && ep.Path == path {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%s %s in %s: %w", method, path, producerRepo, ErrInvalidEndpointReference)
	}

	c := Consumer{
		ConsumerRepo:   consumerRepo,
		ProducerRepo:   producerRepo,
		EndpointMethod: method,
		EndpointPath:   path,
		RegisteredAt:   s.clock.Now(),
	}
	if err := s.store.AddConsumer(ctx, c); err != nil {
		return nil, fmt.Errorf("saving consumer: %w", err)
	}

	s.logger.Info("consumer registered", "consumer", consumerRepo, "producer", producerRepo, "endpoint", method+" "+path)
	return &c, nil
}

// RemoveConsumer deletes a consumer edge. Returns false if no such edge existed.
func (s *Service) RemoveConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (bool, error) {
	removed, err := s.store.RemoveConsumer(ctx, consumerRepo, producerRepo, strings.ToUpper(method), path)
	if err != nil {
		return false, fmt.Errorf("removing consumer: %w", err)
	}
	return removed, nil
}

// ListConsumers returns consumer edges matching filter.
func (s *Service) ListConsumers(ctx context.Context, filter ConsumerFilter) ([]Consumer, error) {
	filter.Method = strings.ToUpper(filter.Method)
	consumers, err := s.store.ListConsumers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing consumers: %w", err)
	}
	return consumers, nil
}

// DependencyGraph builds the repository-level view of all consumer edges.
// Every repository that appears on either side of an edge gets a node; edge
// lists are sorted and free of duplicates.
func (s *Service) DependencyGraph(ctx context.Context) (map[string]GraphNode, error) {
	consumers, err := s.store.ListConsumers(ctx, ConsumerFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing consumers: %w", err)
	}

	dependsOn := make(map[string]map[string]bool)
	dependedBy := make(map[string]map[string]bool)
	touch := func(m map[string]map[string]bool, k string) map[string]bool {
		if m[k] == nil {
			m[k] = make(map[string]bool)
		}
		return m[k]
	}
	for _, c := range consumers {
		touch(dependsOn, c.ConsumerRepo)[c.ProducerRepo] = true
		touch(dependedBy, c.ProducerRepo)[c.ConsumerRepo] = true
		touch(dependsOn, c.ProducerRepo)
		touch(dependedBy, c.ConsumerRepo)
	}

	graph := make(map[string]GraphNode, len(dependsOn))
	for repo := range dependsOn {
		graph[repo] = GraphNode{
			DependsOn:  setToSorted(dependsOn[repo]),
			DependedBy: setToSorted(dependedBy[repo]),
		}
	}
	return graph, nil
}

// attachConsumers fills AffectedConsumers on every change and returns the
// number of distinct consumer repositories across all of them.
//
// When no consumer is registered against the exact endpoint, the producer's
// whole edge list is searched for one with the same method and path.
func (s *Service) attachConsumers(ctx context.Context, repo string, changes []ContractChange) (int, error) {
	var repoConsumers []Consumer
	loaded := false
	distinct := make(map[string]bool)

	for i := range changes {
		ch := &changes[i]
		direct, err := s.store.GetConsumersOf(ctx, repo, ch.EndpointMethod, ch.EndpointPath)
		if err != nil {
			return 0, fmt.Errorf("loading consumers of %s %s: %w", ch.EndpointMethod, ch.EndpointPath, err)
		}

		names := make([]string, 0, len(direct))
		for _, c := range direct {
			names = append(names, c.ConsumerRepo)
		}

		if len(names) == 0 {
			if !loaded {
				repoConsumers, err = s.store.GetConsumersOfRepo(ctx, repo)
				if err != nil {
					return 0, fmt.Errorf("loading consumers of %s: %w", repo, err)
				}
				loaded = true
			}
			for _, c := range repoConsumers {
				if c.EndpointMethod == ch.EndpointMethod && c.EndpointPath == ch.EndpointPath {
					names = append(names, c.ConsumerRepo)
				}
			}
		}

		ch.AffectedConsumers = names
		for _, n := range names {
			distinct[n] = true
		}
	}
	return len(distinct), nil
}

func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
