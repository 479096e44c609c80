package controller

import (
	"fmt"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", serverutils.ErrBadRequest, name)
	}
	return id, nil
}

func entityTypeParam(ctx *fiber.Ctx, name string) (entity.EntityType, error) {
	t, err := entity.ParseEntityType(ctx.Params(name))
	if err != nil {
		return "", fmt.Errorf("%w: %v", serverutils.ErrBadRequest, err)
	}
	return t, nil
}

// entityKey reads the :projectId/:entityType/:entityId triple.
func entityKey(ctx *fiber.Ctx) (uuid.UUID, entity.EntityType, uuid.UUID, error) {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return uuid.Nil, "", uuid.Nil, err
	}
	entityType, err := entityTypeParam(ctx, "entityType")
	if err != nil {
		return uuid.Nil, "", uuid.Nil, err
	}
	entityId, err := uuidParam(ctx, "entityId")
	if err != nil {
		return uuid.Nil, "", uuid.Nil, err
	}
	return projectId, entityType, entityId, nil
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", serverutils.ErrBadRequest, err)
	}
	return nil
}
