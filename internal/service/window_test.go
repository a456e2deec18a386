package service

import (
	"testing"

	"github.com/convowin/convowin/internal/testutil"
	"github.com/convowin/convowin/internal/types"
	"github.com/stretchr/testify/suite"
)

type WindowServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WindowService
}

func TestWindowService(t *testing.T) {
	suite.Run(t, new(WindowServiceSuite))
}

func (s *WindowServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewWindowService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *WindowServiceSuite) TestTryOpenWindow() {
	ctx := s.GetContext()
	s.False(s.service.IsWindowOpen(ctx, "tenant_1", "5511999998888", types.MessageCategoryMarketing))

	opened, err := s.service.TryOpenWindow(ctx, "tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.Require().NoError(err)
	s.True(opened)

	opened, err = s.service.TryOpenWindow(ctx, "tenant_1", "+55 (11) 99999-8888", types.MessageCategoryMarketing)
	s.Require().NoError(err)
	s.False(opened)

	s.True(s.service.IsWindowOpen(ctx, "tenant_1", "5511999998888", types.MessageCategoryMarketing))
	s.False(s.service.IsWindowOpen(ctx, "tenant_1", "5511999998888", types.MessageCategoryUtility))
}

func (s *WindowServiceSuite) TestCloseWindow() {
	ctx := s.GetContext()
	_, err := s.service.TryOpenWindow(ctx, "tenant_1", "5511999998888", types.MessageCategoryUtility)
	s.Require().NoError(err)

	s.Require().NoError(s.service.CloseWindow(ctx, "tenant_1", "+55 11 99999-8888", types.MessageCategoryUtility))
	s.False(s.service.IsWindowOpen(ctx, "tenant_1", "5511999998888", types.MessageCategoryUtility))

	opened, err := s.service.TryOpenWindow(ctx, "tenant_1", "5511999998888", types.MessageCategoryUtility)
	s.Require().NoError(err)
	s.True(opened)
}

func (s *WindowServiceSuite) TestBrokenCacheReadsClosed() {
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	params.Cache = brokenCache{}
	svc := NewWindowService(params)

	s.False(svc.IsWindowOpen(s.GetContext(), "tenant_1", "5511999998888", types.MessageCategoryMarketing))
	_, err := svc.TryOpenWindow(s.GetContext(), "tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.Error(err)
}

func (s *WindowServiceSuite) TestWindowKey() {
	s.Equal("conversation_window:v1:tenant_1:5511999998888:UTILITY",
		windowKey("tenant_1", "+55 11 99999-8888", types.MessageCategoryUtility))
}
