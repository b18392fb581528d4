package project

import (
	"context"
	"sort"
	"strings"
)

// resolveAssignees は外部 ID の列を従業員内部 ID の集合へ解決します。
// 重複した外部 ID は一つに畳まれます。一つでも解決できない ID があれば
// UnresolvedAssigneesError で全体を拒否し、割り当ての黙殺を防ぎます。
func (s *Service) resolveAssignees(ctx context.Context, userIDs []string) ([]string, error) {
	normalized := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, raw := range userIDs {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}

	if len(normalized) == 0 {
		return nil, nil
	}

	resolved, err := s.employees.ResolveUserIDs(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var unresolved []string
	internal := make([]string, 0, len(normalized))
	for _, userID := range normalized {
		id, ok := resolved[userID]
		if !ok {
			unresolved = append(unresolved, userID)
			continue
		}
		internal = append(internal, id)
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedAssigneesError{UserIDs: unresolved}
	}

	sort.Strings(internal)
	return internal, nil
}

// diffAssignments は現在の割り当て集合と希望する割り当て集合の差分を返します。
// added は desired にのみ、removed は current にのみ含まれる ID です。
func diffAssignments(current, desired []string) (added, removed []string) {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}

	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}

	for _, id := range desired {
		if _, ok := currentSet[id]; !ok {
			added = append(added, id)
		}
	}

	for _, id := range current {
		if _, ok := desiredSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	return added, removed
}
