package api

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"chow-down/internal/chow"
)

// defaultCount is the page size used when a locate request does not
// specify count.
const defaultCount = 5

var (
	numberRE  = regexp.MustCompile(`^[-+]?\d+(\.\d*)?$`)
	digitsRE  = regexp.MustCompile(`^\d+$`)
	integerRE = regexp.MustCompile(`^[-+]?\d+$`)
)

type coordInfo struct {
	name     string
	min, max float64
}

var (
	latInfo = coordInfo{name: "latitude", min: -90, max: 90}
	lngInfo = coordInfo{name: "longitude", min: -180, max: 180}
)

type locateParams struct {
	cuisine string
	origin  chow.Loc
	offset  int
	count   int
}

// parseCoord validates a single coordinate string against its range.
func parseCoord(value string, info coordInfo) (float64, *chow.Error) {
	if !numberRE.MatchString(value) {
		msg := fmt.Sprintf("bad %s %q", info.name, value)
		return 0, &chow.Error{Message: msg, Code: chow.CodeBadReq}
	}
	n, _ := strconv.ParseFloat(value, 64)
	if n < info.min || n > info.max {
		msg := fmt.Sprintf("%s %v not in range [%v,%v]", info.name, n, info.min, info.max)
		return 0, &chow.Error{Message: msg, Code: chow.CodeBadReq}
	}
	return n, nil
}

// parseLocateParams validates a geo-search request, accumulating every
// problem rather than stopping at the first.
func parseLocateParams(lat, lng string, query url.Values) (locateParams, chow.Errors) {
	var errs chow.Errors
	params := locateParams{count: defaultCount}

	if n, err := parseCoord(lat, latInfo); err != nil {
		errs = append(errs, err)
	} else {
		params.origin.Lat = n
	}
	if n, err := parseCoord(lng, lngInfo); err != nil {
		errs = append(errs, err)
	} else {
		params.origin.Lng = n
	}

	params.cuisine = strings.TrimSpace(query.Get("cuisine"))
	if params.cuisine == "" {
		errs = append(errs, &chow.Error{Message: "missing cuisine parameter", Code: chow.CodeBadReq})
	}

	if offset := query.Get("offset"); offset != "" {
		if !digitsRE.MatchString(offset) {
			msg := fmt.Sprintf("bad offset %q", offset)
			errs = append(errs, &chow.Error{Message: msg, Code: chow.CodeBadReq})
		} else {
			params.offset, _ = strconv.Atoi(offset)
		}
	}
	if count := query.Get("count"); count != "" {
		if !digitsRE.MatchString(count) {
			msg := fmt.Sprintf("bad count %q", count)
			errs = append(errs, &chow.Error{Message: msg, Code: chow.CodeBadReq})
		} else {
			params.count, _ = strconv.Atoi(count)
		}
	}

	if errs != nil {
		return locateParams{}, errs
	}
	return params, nil
}

// parseEditParams validates the itemId/nItems query parameters of an
// order edit, accumulating all problems.
func parseEditParams(orderID string, query url.Values) (itemID string, nItems int, errs chow.Errors) {
	itemID = query.Get("itemId")
	if itemID == "" {
		msg := fmt.Sprintf("no itemId in update for order %q", orderID)
		errs = append(errs, &chow.Error{Message: msg, Code: chow.CodeBadReq})
	}

	nItemsStr := query.Get("nItems")
	if nItemsStr == "" {
		msg := fmt.Sprintf("no nItems in update for order %q", orderID)
		errs = append(errs, &chow.Error{Message: msg, Code: chow.CodeBadReq})
	} else if !integerRE.MatchString(nItemsStr) {
		msg := fmt.Sprintf("bad nItems %q in update for order %q", nItemsStr, orderID)
		errs = append(errs, &chow.Error{Message: msg, Code: chow.CodeBadReq})
	} else {
		nItems, _ = strconv.Atoi(nItemsStr)
	}

	if errs != nil {
		return "", 0, errs
	}
	return itemID, nItems, nil
}
