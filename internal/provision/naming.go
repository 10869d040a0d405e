package provision

import "strings"

// Group display names are capped by the management API.
const groupDisplayNameMaxLength = 32

// GroupNames holds the three derived identifiers for a group: the short name
// used for lookups, the machine-stable unique name and the length-bounded
// display name.
type GroupNames struct {
	Short   string
	Unique  string
	Display string
}

// groupNamesFor derives the group identifiers from bucket, path and access
// grants. Pure string derivation, no I/O.
func groupNamesFor(bucket, path string, access []Access) GroupNames {
	postfix := accessPostfix(access)
	short := bucket + "-" + path + "-" + postfix

	return GroupNames{
		Short:   short,
		Unique:  "group/" + short,
		Display: shortDisplayName(path, bucket, postfix),
	}
}

// accessPostfix concatenates the first letter of each grant in caller order.
// An empty grant set means full access and gets the fixed "RWD" postfix.
func accessPostfix(access []Access) string {
	if len(access) == 0 {
		return "RWD"
	}
	var postfix strings.Builder
	for _, a := range access {
		postfix.WriteString(string(a)[:1])
	}
	return postfix.String()
}

// shortDisplayName bounds the display name to groupDisplayNameMaxLength.
// The postfix always survives; the path is truncated first, then dropped
// entirely, then the remainder is cut at the cap.
func shortDisplayName(path, bucket, postfix string) string {
	full := bucket + "-" + path + "-" + postfix
	if len(full) <= groupDisplayNameMaxLength {
		return full
	}

	noPath := bucket + "-" + postfix
	// Minus 1 for the extra separator added when a truncated path is kept.
	budget := groupDisplayNameMaxLength - 1 - len(noPath)
	if budget > 0 {
		return bucket + "-" + path[:budget] + "-" + postfix
	}
	if len(noPath) > groupDisplayNameMaxLength {
		return noPath[:groupDisplayNameMaxLength]
	}
	return noPath
}
