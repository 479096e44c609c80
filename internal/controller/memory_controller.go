package controller

import (
	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/serverutils"
	"ai-novelwriter-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMemoryController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetOrCreate(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	BatchCreate(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Count(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Exists(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Enqueue(ctx *fiber.Ctx) error
}

type memoryController struct {
	service service.IMemoryService
}

func NewMemoryController(service service.IMemoryService) IMemoryController {
	return &memoryController{service: service}
}

func (c *memoryController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/memory/v1")
	h.Use(auth)
	h.Post("/search", c.Search)

	p := h.Group("/projects/:projectId")
	p.Post("/events", c.Enqueue)
	p.Post("/vectors", c.GetOrCreate)
	p.Put("/vectors", c.Update)
	p.Get("/vectors", c.GetAll)
	p.Get("/vectors/count", c.Count)
	p.Post("/vectors/batch", c.BatchCreate)
	p.Get("/vectors/:entityType/:entityId", c.Show)
	p.Delete("/vectors/:entityType/:entityId", c.Delete)
	p.Get("/vectors/:entityType/:entityId/exists", c.Exists)
}

func (c *memoryController) upsertRequest(ctx *fiber.Ctx) (*dto.UpsertVectorRequest, error) {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return nil, err
	}

	var req dto.UpsertVectorRequest
	if err := parseBody(ctx, &req); err != nil {
		return nil, err
	}
	req.ProjectId = projectId

	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *memoryController) GetOrCreate(ctx *fiber.Ctx) error {
	req, err := c.upsertRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetOrCreate(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get or create vector", res))
}

func (c *memoryController) Update(ctx *fiber.Ctx) error {
	req, err := c.upsertRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update vector", res))
}

func (c *memoryController) BatchCreate(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	var req dto.BatchUpsertVectorRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.ProjectId = projectId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.BatchCreate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success batch create vectors", res))
}

func (c *memoryController) GetAll(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	var entityType *entity.EntityType
	if raw := ctx.Query("type"); raw != "" {
		parsed, err := entity.ParseEntityType(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		entityType = &parsed
	}

	res, err := c.service.GetAll(ctx.UserContext(), projectId, entityType)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all vectors", res))
}

func (c *memoryController) Count(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	res, err := c.service.Count(ctx.UserContext(), projectId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success count vectors", res))
}

func (c *memoryController) Show(ctx *fiber.Ctx) error {
	projectId, entityType, entityId, err := entityKey(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), projectId, entityType, entityId, ctx.QueryBool("embedding", false))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show vector", res))
}

func (c *memoryController) Exists(ctx *fiber.Ctx) error {
	projectId, entityType, entityId, err := entityKey(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Exists(ctx.UserContext(), projectId, entityType, entityId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check vector", res))
}

func (c *memoryController) Delete(ctx *fiber.Ctx) error {
	projectId, entityType, entityId, err := entityKey(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), projectId, entityType, entityId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete vector", nil))
}

func (c *memoryController) Search(ctx *fiber.Ctx) error {
	var req dto.SemanticSearchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success semantic search", res))
}

func (c *memoryController) Enqueue(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	var req dto.EntityEventRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.ProjectId = projectId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Enqueue(ctx.UserContext(), &req); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Entity event queued", nil))
}
