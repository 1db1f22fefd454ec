// Package querybuilder translates declarative constraint tuples into the
// closed [domain.Constraint] variants consumed by the store.
package querybuilder

import (
	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

const op = "querybuilder.parse"

// Parse validates an ordered sequence of constraint tuples and returns the
// corresponding constraints, order preserved. Tuples look like
//
//	["where", field, operator, value]
//	["orderBy", field, direction?]
//	["limit", n]
//
// Where arguments pass through verbatim; orderBy directions other than
// "asc"/"desc" and non-positive limits are rejected as invalid arguments;
// unknown tags are rejected as unsupported.
func Parse(tuples [][]any) ([]domain.Constraint, error) {
	res := make([]domain.Constraint, 0, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) == 0 {
			return nil, errs.E(op, errs.InvalidArgument, "empty constraint tuple")
		}
		tag, ok := tuple[0].(string)
		if !ok {
			return nil, errs.E(op, errs.Unsupported, domain.ErrConstraintTag{Tag: tuple[0]})
		}
		var c domain.Constraint
		var err error
		switch tag {
		case "where":
			c, err = parseWhere(tuple[1:])
		case "orderBy":
			c, err = parseOrderBy(tuple[1:])
		case "limit":
			c, err = parseLimit(tuple[1:])
		default:
			err = errs.E(op, errs.Unsupported, domain.ErrConstraintTag{Tag: tag})
		}
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func parseWhere(args []any) (domain.Constraint, error) {
	if len(args) != 3 {
		return nil, errs.E(op, errs.InvalidArgument, "where takes exactly field, operator and value")
	}
	field, ok := args[0].(string)
	if !ok {
		return nil, errs.E(op, errs.InvalidArgument, "where field must be a string")
	}
	operator, ok := args[1].(string)
	if !ok {
		return nil, errs.E(op, errs.InvalidArgument, "where operator must be a string")
	}
	return domain.Where{Field: field, Op: operator, Value: args[2]}, nil
}

func parseOrderBy(args []any) (domain.Constraint, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, errs.E(op, errs.InvalidArgument, "orderBy takes a field and an optional direction")
	}
	field, ok := args[0].(string)
	if !ok {
		return nil, errs.E(op, errs.InvalidArgument, "orderBy field must be a string")
	}
	direction := "asc"
	if len(args) == 2 {
		direction, ok = args[1].(string)
		if !ok {
			return nil, errs.E(op, errs.InvalidArgument, domain.ErrDirection{Direction: args[1]})
		}
	}
	switch direction {
	case "asc":
		return domain.OrderBy{Field: field}, nil
	case "desc":
		return domain.OrderBy{Field: field, Descending: true}, nil
	default:
		return nil, errs.E(op, errs.InvalidArgument, domain.ErrDirection{Direction: direction})
	}
}

func parseLimit(args []any) (domain.Constraint, error) {
	if len(args) != 1 {
		return nil, errs.E(op, errs.InvalidArgument, "limit takes exactly one count")
	}
	n, ok := data.AsInt64(args[0])
	if !ok || n <= 0 {
		return nil, errs.E(op, errs.InvalidArgument, domain.ErrLimit{Value: args[0]})
	}
	return domain.Limit{N: n}, nil
}
