package sdb

import (
	"fmt"
	"strconv"
)

// params é o mapa plano de parâmetros da Query API.
type params map[string]string

// encodeWrites grava cada valor como um par Attribute.N.*, com N contínuo a
// partir de zero em toda a chamada (não por nome).
func encodeWrites(p params, prefix string, attrs []AttributeWrite, replaceAll bool) {
	n := 0
	for _, a := range attrs {
		for _, v := range a.Values {
			key := fmt.Sprintf("%sAttribute.%d", prefix, n)
			p[key+".Name"] = a.Name
			p[key+".Value"] = v
			if replaceAll || a.Mode == Replace {
				p[key+".Replace"] = "true"
			}
			n++
		}
	}
}

// encodeDeletes segue o mesmo esquema de encodeWrites; um nome sem valores
// gera apenas Attribute.N.Name.
func encodeDeletes(p params, prefix string, attrs []AttributeDelete) {
	n := 0
	for _, a := range attrs {
		if len(a.Values) == 0 {
			p[fmt.Sprintf("%sAttribute.%d.Name", prefix, n)] = a.Name
			n++
			continue
		}
		for _, v := range a.Values {
			key := fmt.Sprintf("%sAttribute.%d", prefix, n)
			p[key+".Name"] = a.Name
			p[key+".Value"] = v
			n++
		}
	}
}

func encodeExpected(p params, expected []Expected) {
	for k, e := range expected {
		key := fmt.Sprintf("Expected.%d", k)
		p[key+".Name"] = e.Name
		if e.Exists != nil {
			p[key+".Exists"] = strconv.FormatBool(*e.Exists)
			if !*e.Exists {
				continue
			}
		}
		p[key+".Value"] = e.Value
	}
}

func encodePutItems(p params, items []PutItem, replaceAll bool) {
	for i, item := range items {
		prefix := fmt.Sprintf("Item.%d.", i)
		p[prefix+"ItemName"] = item.Name
		encodeWrites(p, prefix, item.Attributes, replaceAll)
	}
}

func encodeDeleteItems(p params, items []DeleteItem) {
	for i, item := range items {
		prefix := fmt.Sprintf("Item.%d.", i)
		p[prefix+"ItemName"] = item.Name
		encodeDeletes(p, prefix, item.Attributes)
	}
}

func encodeAttributeNames(p params, names []string) {
	if len(names) == 1 {
		p["AttributeName"] = names[0]
		return
	}
	for i, name := range names {
		p[fmt.Sprintf("AttributeName.%d", i)] = name
	}
}

func validateWrites(method string, attrs []AttributeWrite) *Error {
	for _, a := range attrs {
		if a.Name == "" {
			return validationError(method, CodeInvalidParameterValue, "Attribute name must not be empty.")
		}
		if len(a.Values) == 0 {
			return validationError(method, CodeInvalidParameterValue, "Attribute %s has no values.", a.Name)
		}
	}
	return nil
}

func validateExpected(method string, expected []Expected) *Error {
	for _, e := range expected {
		if e.Name == "" {
			return validationError(method, CodeInvalidParameterValue, "Expected name must not be empty.")
		}
		// Exists=false é a única forma válida sem valor.
		if e.Value == "" && (e.Exists == nil || *e.Exists) {
			return validationError(method, CodeIncompleteExpectedValues,
				"If Expected.Exists is not false, Expected.Value must be given for %s.", e.Name)
		}
	}
	return nil
}

func validateDomain(method, domain string) *Error {
	if !ValidDomainName(domain) {
		return validationError(method, CodeInvalidParameterValue,
			"Value (%s) for parameter DomainName is invalid.", domain)
	}
	return nil
}

func validateItemName(method, item string) *Error {
	if item == "" {
		return validationError(method, CodeInvalidParameterValue, "Value () for parameter ItemName is invalid.")
	}
	return nil
}

func validateBatchSize(method string, n int) *Error {
	if n > MaxBatchItems {
		return validationError(method, CodeNumberSubmittedItemsExceeded,
			"Too many items in a single call. Up to %d items per call allowed.", MaxBatchItems)
	}
	return nil
}
