package controller

import (
	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/pkg/serverutils"
	"ai-novelwriter-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IContextController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Inject(ctx *fiber.Ctx) error
	OutlinePrompt(ctx *fiber.Ctx) error
	ChapterPrompt(ctx *fiber.Ctx) error
	CharacterPrompt(ctx *fiber.Ctx) error
	ConsistencyPrompt(ctx *fiber.Ctx) error
	InvalidateProject(ctx *fiber.Ctx) error
	ClearCache(ctx *fiber.Ctx) error
}

type contextController struct {
	service service.IContextService
}

func NewContextController(service service.IContextService) IContextController {
	return &contextController{service: service}
}

func (c *contextController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/context/v1")
	h.Use(auth)
	h.Delete("/cache", c.ClearCache)

	p := h.Group("/projects/:projectId")
	p.Post("/inject", c.Inject)
	p.Post("/prompts/outline", c.OutlinePrompt)
	p.Post("/prompts/chapter", c.ChapterPrompt)
	p.Post("/prompts/characters", c.CharacterPrompt)
	p.Post("/prompts/consistency", c.ConsistencyPrompt)
	p.Delete("/cache", c.InvalidateProject)
}

// bindProjectRequest parses and validates a body whose project comes from the path.
func bindProjectRequest(ctx *fiber.Ctx, req interface{}, setProject func(uuid.UUID)) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, req); err != nil {
			return err
		}
	}
	setProject(projectId)
	return serverutils.ValidateRequest(req)
}

func (c *contextController) Inject(ctx *fiber.Ctx) error {
	var req dto.InjectContextRequest
	if err := bindProjectRequest(ctx, &req, func(id uuid.UUID) { req.ProjectId = id }); err != nil {
		return err
	}

	res, err := c.service.Inject(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success inject context", res))
}

func (c *contextController) OutlinePrompt(ctx *fiber.Ctx) error {
	var req dto.OutlinePromptRequest
	if err := bindProjectRequest(ctx, &req, func(id uuid.UUID) { req.ProjectId = id }); err != nil {
		return err
	}

	res, err := c.service.OutlinePrompt(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build outline prompt", res))
}

func (c *contextController) ChapterPrompt(ctx *fiber.Ctx) error {
	var req dto.ChapterPromptRequest
	if err := bindProjectRequest(ctx, &req, func(id uuid.UUID) { req.ProjectId = id }); err != nil {
		return err
	}

	res, err := c.service.ChapterPrompt(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build chapter prompt", res))
}

func (c *contextController) CharacterPrompt(ctx *fiber.Ctx) error {
	var req dto.CharacterPromptRequest
	if err := bindProjectRequest(ctx, &req, func(id uuid.UUID) { req.ProjectId = id }); err != nil {
		return err
	}

	res, err := c.service.CharacterPrompt(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build character prompt", res))
}

func (c *contextController) ConsistencyPrompt(ctx *fiber.Ctx) error {
	var req dto.ConsistencyPromptRequest
	if err := bindProjectRequest(ctx, &req, func(id uuid.UUID) { req.ProjectId = id }); err != nil {
		return err
	}

	res, err := c.service.ConsistencyPrompt(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build consistency prompt", res))
}

func (c *contextController) InvalidateProject(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	c.service.InvalidateProject(ctx.UserContext(), projectId)
	return ctx.JSON(serverutils.SuccessResponse[any]("Success invalidate project context", nil))
}

func (c *contextController) ClearCache(ctx *fiber.Ctx) error {
	c.service.ClearCache(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear context cache", nil))
}
