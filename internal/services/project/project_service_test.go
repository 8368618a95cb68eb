package project_test

import (
	"context"
	"testing"

	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := project.NewProjectService(testutil.NewStore().Projects())

	changes := 0
	svc.OnChange(func() { changes++ })

	p, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "  Alpha  "})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, project.StatusBacklog, p.Status)
	assert.Equal(t, 1, changes)

	_, err = svc.Create(ctx, &project.CreateProjectRequest{Name: "Alpha"})
	assert.ErrorIs(t, err, project.ErrProjectAlreadyExists)

	_, err = svc.Create(ctx, &project.CreateProjectRequest{Name: "A"})
	assert.True(t, perrors.IsValidation(err))

	_, err = svc.Create(ctx, &project.CreateProjectRequest{Name: "Beta", Status: "archived"})
	assert.True(t, perrors.IsValidation(err))
	assert.Equal(t, 1, changes)
}

func TestUpdateReportsRename(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	alpha := store.AddProject(t, "Alpha")
	store.AddProject(t, "Beta")
	svc := project.NewProjectService(store.Projects())

	desc := "new description"
	p, renamed, err := svc.Update(ctx, alpha.ID, &project.UpdateProjectRequest{Description: &desc})
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, desc, p.Description)

	same := "Alpha"
	_, renamed, err = svc.Update(ctx, alpha.ID, &project.UpdateProjectRequest{Name: &same})
	require.NoError(t, err)
	assert.False(t, renamed)

	taken := "Beta"
	_, _, err = svc.Update(ctx, alpha.ID, &project.UpdateProjectRequest{Name: &taken})
	assert.ErrorIs(t, err, project.ErrProjectAlreadyExists)

	name := "Alpha2"
	p, renamed, err = svc.Update(ctx, alpha.ID, &project.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Alpha2", p.Name)

	_, _, err = svc.Update(ctx, uuid.New(), &project.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestDeleteFreesNameAndLeavesDirectory(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	alpha := store.AddProject(t, "Alpha")
	svc := project.NewProjectService(store.Projects())

	require.NoError(t, svc.Delete(ctx, alpha.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alpha.ID), project.ErrProjectNotFound)

	dir, err := svc.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dir.Len())

	// Deleted projects are still reachable by id.
	p, err := svc.GetByID(ctx, alpha.ID)
	require.NoError(t, err)
	assert.True(t, p.IsDeleted)

	_, err = svc.Create(ctx, &project.CreateProjectRequest{Name: "Alpha"})
	require.NoError(t, err)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCachedDirectoryFollowsServiceChanges(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	svc := project.NewProjectService(store.Projects())
	cache := project.NewCachedDirectory(svc)
	svc.OnChange(cache.Invalidate)

	dir, err := cache.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dir.Len())

	created, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "Alpha"})
	require.NoError(t, err)

	dir, err = cache.Directory(ctx)
	require.NoError(t, err)
	_, ok := dir.FindByID(created.ID)
	assert.True(t, ok)
}
