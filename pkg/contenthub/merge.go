package contenthub

// ResolvedContent is the live side of a merge: what a validated tracker
// reported, tagged with the candidate that produced it.
type ResolvedContent struct {
	Address string
	Chain   Chain
	Type    ContentType
	Info    Fields
}

// Merge combines a registry record with live content. Identity fields come
// from the record whenever one exists; every other field prefers the live
// value.
func Merge(rec *ContentRecord, rc ResolvedContent) Fields {
	var out Fields
	if rec != nil {
		out = rec.Fields()
	} else {
		out = make(Fields, len(rc.Info)+3)
	}
	for k, v := range rc.Info {
		if isIdentityField(k) {
			continue
		}
		out[k] = v
	}

	if rec != nil {
		out[FieldAddress] = rec.Address
		out[FieldChain] = string(rec.Chain)
		out[FieldType] = string(rec.Type)
	} else {
		setIdentity(out, FieldAddress, rc.Address, rc.Info)
		setIdentity(out, FieldChain, string(rc.Chain), rc.Info)
		setIdentity(out, FieldType, string(rc.Type), rc.Info)
	}
	return out
}

// setIdentity uses the resolved value, or what the tracker reported when the
// resolution did not determine it.
func setIdentity(out Fields, key, resolved string, info Fields) {
	if resolved == "" {
		resolved = info.String(key)
	}
	out[key] = resolved
}

// MergeFailed returns the registry view of a record whose live fetch failed.
func MergeFailed(rec ContentRecord, fetchErr error) Fields {
	out := rec.Fields()
	out[FieldFromRegistry] = true
	msg := "blockchain fetch failed"
	if fetchErr != nil {
		msg = fetchErr.Error()
	}
	out[FieldBlockchainFetchError] = msg
	return out
}

// degradedFromRegistry marks a registry fallback as a failed list item while
// keeping the curated fields.
func degradedFromRegistry(rec ContentRecord, fetchErr error) Fields {
	out := MergeFailed(rec, fetchErr)
	out[FieldError] = out[FieldBlockchainFetchError]
	out[FieldFetchFailed] = true
	return out
}

func isIdentityField(k string) bool {
	return k == FieldAddress || k == FieldChain || k == FieldType
}
