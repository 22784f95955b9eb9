package services_test

import (
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (suite *PostingServiceTestSuite) TestApproval_MultiStepPostsOnFinalStep() {
	deferred, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "300", "300"), "", testUser)
	suite.Require().NoError(err)
	suite.True(deferred.Deferred)
	suite.Equal(domain.Submitted, deferred.Journal.Status)
	suite.Require().NotNil(deferred.Task)
	suite.Equal(2, deferred.Task.TotalSteps)
	suite.Empty(deferred.Journal.VoucherNumber)
	suite.Empty(suite.store.LedgerPostings(deferred.Journal.JournalID))
	id := deferred.Journal.JournalID

	// posting again while the task is pending is refused; only approval posts it
	_, err = suite.service.Post(suite.ctx, testOrg, id, nil, "", testUser)
	suite.requireCode(err, apperrors.CodeApprovalPending)
	suite.ErrorIs(err, apperrors.ErrApprovalPending)
	suite.Empty(suite.store.LedgerPostings(id))

	step1, err := suite.service.Approve(suite.ctx, testOrg, id, "looks fine", "approver-1")
	suite.Require().NoError(err)
	suite.True(step1.Deferred)
	suite.Equal(2, step1.Task.CurrentStep)
	suite.Equal(domain.Submitted, step1.Journal.Status)

	step2, err := suite.service.Approve(suite.ctx, testOrg, id, "signed", "approver-2")
	suite.Require().NoError(err)
	suite.False(step2.Deferred)
	suite.Equal(domain.ApprovalApproved, step2.Task.Status)
	suite.Equal(domain.Posted, step2.Journal.Status)
	suite.Equal("PV-000001", step2.Journal.VoucherNumber)
	suite.Require().NotNil(step2.Journal.ApprovedBy)
	suite.Equal("approver-2", *step2.Journal.ApprovedBy)
	suite.Len(suite.store.LedgerPostings(id), 2)

	task, err := suite.service.GetTask(suite.ctx, testOrg, id)
	suite.Require().NoError(err)
	suite.Len(task.History, 2)

	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-3")
	suite.requireCode(err, apperrors.CodeInvalidState)
}

func (suite *PostingServiceTestSuite) TestApproval_SubmitOpensTask() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("payment", "10", "10"), testUser)
	suite.Require().NoError(err)

	submitted, err := suite.service.Submit(suite.ctx, testOrg, draft.Journal.JournalID, nil, "", testUser)
	suite.Require().NoError(err)
	suite.Require().NotNil(submitted.Task)
	suite.Equal(domain.ApprovalPending, submitted.Task.Status)
	suite.Equal(1, submitted.Task.CurrentStep)
}

func (suite *PostingServiceTestSuite) TestApproval_RejectReturnsToDraft() {
	deferred, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "10", "10"), "", testUser)
	suite.Require().NoError(err)
	id := deferred.Journal.JournalID

	rejected, err := suite.service.Reject(suite.ctx, testOrg, id, "wrong account", "approver-1")
	suite.Require().NoError(err)
	suite.Equal(domain.Draft, rejected.Journal.Status)
	suite.Equal("wrong account", rejected.Journal.RejectionNotes)
	suite.Equal(domain.ApprovalRejected, rejected.Task.Status)

	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-1")
	suite.requireCode(err, apperrors.CodeInvalidState)

	// resubmission opens a fresh task
	resubmitted, err := suite.service.Submit(suite.ctx, testOrg, id, nil, "", testUser)
	suite.Require().NoError(err)
	suite.Require().NotNil(resubmitted.Task)
	suite.NotEqual(rejected.Task.TaskID, resubmitted.Task.TaskID)
	suite.Empty(resubmitted.Journal.RejectionNotes)
}

func (suite *PostingServiceTestSuite) TestApproval_ClosedPeriodRollsBackFinalStep() {
	p := suite.payload("payment", "10", "10")
	deferred, err := suite.service.PostPayload(suite.ctx, testOrg, p, "", testUser)
	suite.Require().NoError(err)
	id := deferred.Journal.JournalID

	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-1")
	suite.Require().NoError(err)

	suite.store.SetPeriodStatus("2024-07", domain.PeriodClosed)
	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-2")
	suite.requireCode(err, apperrors.CodePeriodClosed)

	task, err := suite.service.GetTask(suite.ctx, testOrg, id)
	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalPending, task.Status)
	suite.Equal(2, task.CurrentStep)
	suite.Len(task.History, 1)

	j, err := suite.service.GetJournal(suite.ctx, testOrg, id)
	suite.Require().NoError(err)
	suite.Equal(domain.Submitted, j.Status)
	suite.Empty(suite.store.LedgerPostings(id))
}

func (suite *PostingServiceTestSuite) TestApproval_DeferredPostReplays() {
	first, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "10", "10"), "pay-1", testUser)
	suite.Require().NoError(err)
	suite.True(first.Deferred)

	second, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "10", "10"), "pay-1", testUser)
	suite.Require().NoError(err)
	suite.True(second.Replayed)
	suite.True(second.Deferred)
	suite.Require().NotNil(second.Task)
	suite.Equal(first.Task.TaskID, second.Task.TaskID)
	suite.Equal(1, suite.store.JournalCount(testOrg))
}

func (suite *PostingServiceTestSuite) TestApproval_ReplayAfterApprovalReportsPosted() {
	first, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "10", "10"), "pay-2", testUser)
	suite.Require().NoError(err)
	suite.Require().True(first.Deferred)
	id := first.Journal.JournalID

	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-1")
	suite.Require().NoError(err)
	_, err = suite.service.Approve(suite.ctx, testOrg, id, "", "approver-2")
	suite.Require().NoError(err)

	replayed, err := suite.service.PostPayload(suite.ctx, testOrg, suite.payload("payment", "10", "10"), "pay-2", testUser)
	suite.Require().NoError(err)
	suite.True(replayed.Replayed)
	suite.False(replayed.Deferred)
	suite.Equal(domain.Posted, replayed.Journal.Status)
	suite.Equal("PV-000001", replayed.Journal.VoucherNumber)
	suite.Require().NotNil(replayed.Task)
	suite.Equal(domain.ApprovalApproved, replayed.Task.Status)
	suite.Equal(1, suite.store.JournalCount(testOrg))
}

func (suite *PostingServiceTestSuite) TestGetTask_NoneFound() {
	draft, err := suite.service.CreateDraft(suite.ctx, testOrg, suite.payload("journal", "1", "1"), testUser)
	suite.Require().NoError(err)

	_, err = suite.service.GetTask(suite.ctx, testOrg, draft.Journal.JournalID)
	suite.requireCode(err, apperrors.CodeNotFound)
}
