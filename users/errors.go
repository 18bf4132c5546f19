package users

import "github.com/goliatone/go-errors"

const (
	TextCodeSelfDelete       = "SELF_DELETE"
	TextCodeNothingToUpdate  = "NOTHING_TO_UPDATE"
	TextCodeAlreadyActive    = "ALREADY_ACTIVE"
	TextCodeRoleChangeDenied = "ROLE_CHANGE_DENIED"
	TextCodeInvalidPhone     = "INVALID_PHONE"
)

var ErrSelfDelete = errors.New("you cannot delete or deactivate your own account", errors.CategoryBadInput).
	WithTextCode(TextCodeSelfDelete).
	WithCode(errors.CodeBadRequest)

var ErrNothingToUpdate = errors.New("no fields to update", errors.CategoryBadInput).
	WithTextCode(TextCodeNothingToUpdate).
	WithCode(errors.CodeBadRequest)

var ErrAlreadyActive = errors.New("account is already active", errors.CategoryBadInput).
	WithTextCode(TextCodeAlreadyActive).
	WithCode(errors.CodeBadRequest)

var ErrRoleChangeDenied = errors.New("only admins can change role and status", errors.CategoryAuthz).
	WithTextCode(TextCodeRoleChangeDenied).
	WithCode(errors.CodeForbidden)

var ErrInvalidPhone = errors.New("invalid phone number", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhone).
	WithCode(errors.CodeBadRequest)
