package contract

import (
	"fmt"
	"sort"
)

// Direction says which side of an exchange a schema describes. It decides
// whether additions or removals break existing callers.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// widenings lists type changes that are accepted with a warning.
var widenings = map[[2]string]bool{
	{"integer", "number"}: true,
	{"int", "float"}:      true,
	{"int", "number"}:     true,
}

func isWidening(oldType, newType string) bool {
	return widenings[[2]string{oldType, newType}]
}

// Diff compares two endpoint sets of the same repository and partitions every
// detected change into breaking and non-breaking lists.
//
// Endpoints are matched by (method, path). Output order follows the sorted
// endpoint keys and field names but is not part of the contract.
func Diff(before, after []Endpoint) (breaking, nonBreaking []ContractChange) {
	oldByKey := indexEndpoints(before)
	newByKey := indexEndpoints(after)

	for _, key := range sortedKeys(oldByKey) {
		if _, ok := newByKey[key]; ok {
			continue
		}
		ep := oldByKey[key]
		breaking = append(breaking, newChange(ep, ChangeRemoved, SeverityBreaking,
			fmt.Sprintf("Endpoint %s %s removed", ep.Method, ep.Path)))
	}

	for _, key := range sortedKeys(newByKey) {
		if _, ok := oldByKey[key]; ok {
			continue
		}
		ep := newByKey[key]
		nonBreaking = append(nonBreaking, newChange(ep, ChangeAdded, SeverityInfo,
			fmt.Sprintf("Endpoint %s %s added", ep.Method, ep.Path)))
	}

	for _, key := range sortedKeys(oldByKey) {
		newEp, ok := newByKey[key]
		if !ok {
			continue
		}
		oldEp := oldByKey[key]

		b, nb := diffFields(oldEp, DecodeFieldTable(oldEp.RequestSchema), DecodeFieldTable(newEp.RequestSchema), DirectionRequest)
		breaking = append(breaking, b...)
		nonBreaking = append(nonBreaking, nb...)

		b, nb = diffFields(oldEp, DecodeFieldTable(oldEp.ResponseSchema), DecodeFieldTable(newEp.ResponseSchema), DirectionResponse)
		breaking = append(breaking, b...)
		nonBreaking = append(nonBreaking, nb...)

		if newEp.Summary != "" && newEp.Summary != oldEp.Summary {
			nonBreaking = append(nonBreaking, newChange(oldEp, ChangeModified, SeverityInfo,
				fmt.Sprintf("Summary changed for %s %s", oldEp.Method, oldEp.Path)))
		}
	}

	return breaking, nonBreaking
}

// diffFields applies the direction-aware field rules to one schema pair.
func diffFields(ep Endpoint, oldFields, newFields FieldTable, dir Direction) (breaking, nonBreaking []ContractChange) {
	if len(oldFields) == 0 && len(newFields) == 0 {
		return nil, nil
	}

	emit := func(kind ChangeKind, sev Severity, desc string) {
		c := newChange(ep, kind, sev, desc)
		if sev == SeverityBreaking {
			breaking = append(breaking, c)
		} else {
			nonBreaking = append(nonBreaking, c)
		}
	}
	where := fmt.Sprintf("%s %s", ep.Method, ep.Path)

	for _, name := range sortedFieldNames(oldFields) {
		if _, ok := newFields[name]; ok {
			continue
		}
		if dir == DirectionResponse {
			emit(ChangeRemoved, SeverityBreaking, fmt.Sprintf("Response field '%s' removed from %s", name, where))
		} else {
			emit(ChangeRemoved, SeverityInfo, fmt.Sprintf("Request field '%s' removed from %s", name, where))
		}
	}

	for _, name := range sortedFieldNames(newFields) {
		if _, ok := oldFields[name]; ok {
			continue
		}
		switch {
		case dir == DirectionRequest && newFields[name].Required:
			emit(ChangeAdded, SeverityBreaking, fmt.Sprintf("Required request field '%s' added to %s", name, where))
		case dir == DirectionResponse:
			emit(ChangeAdded, SeverityInfo, fmt.Sprintf("Response field '%s' added to %s", name, where))
		default:
			emit(ChangeAdded, SeverityInfo, fmt.Sprintf("Optional request field '%s' added to %s", name, where))
		}
	}

	for _, name := range sortedFieldNames(oldFields) {
		newField, ok := newFields[name]
		if !ok {
			continue
		}
		oldField := oldFields[name]

		if oldField.Type != newField.Type {
			if isWidening(oldField.Type, newField.Type) {
				emit(ChangeModified, SeverityWarning, fmt.Sprintf("Field '%s' type widened from '%s' to '%s' in %s of %s",
					name, oldField.Type, newField.Type, dir, where))
			} else {
				emit(ChangeModified, SeverityBreaking, fmt.Sprintf("Field '%s' type changed from '%s' to '%s' in %s of %s",
					name, oldField.Type, newField.Type, dir, where))
			}
		}

		switch {
		case !oldField.Required && newField.Required:
			desc := fmt.Sprintf("Field '%s' changed from optional to required in %s of %s", name, dir, where)
			if dir == DirectionRequest {
				emit(ChangeModified, SeverityBreaking, desc)
			} else {
				emit(ChangeModified, SeverityInfo, desc)
			}
		case oldField.Required && !newField.Required:
			desc := fmt.Sprintf("Field '%s' changed from required to optional in %s of %s", name, dir, where)
			if dir == DirectionResponse {
				emit(ChangeModified, SeverityWarning, desc)
			} else {
				emit(ChangeModified, SeverityInfo, desc)
			}
		}
	}

	return breaking, nonBreaking
}

func newChange(ep Endpoint, kind ChangeKind, sev Severity, desc string) ContractChange {
	return ContractChange{
		RepoName:       ep.RepoName,
		EndpointMethod: ep.Method,
		EndpointPath:   ep.Path,
		Kind:           kind,
		Severity:       sev,
		Description:    desc,
	}
}

func indexEndpoints(eps []Endpoint) map[EndpointKey]Endpoint {
	m := make(map[EndpointKey]Endpoint, len(eps))
	for _, ep := range eps {
		m[ep.Key()] = ep
	}
	return m
}

func sortedKeys(m map[EndpointKey]Endpoint) []EndpointKey {
	keys := make([]EndpointKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		return keys[i].Path < keys[j].Path
	})
	return keys
}

func sortedFieldNames(t FieldTable) []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
