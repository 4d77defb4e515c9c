package state_test

import (
	"partywork/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
		pending      = state.State{Name: "PENDING"}
		approved     = state.State{Name: "APPROVED", Terminal: true}
		rejected     = state.State{Name: "REJECTED", Terminal: true}
	)

	BeforeEach(func() {
		//           PENDING      APPROVED      REJECTED
		// PENDING   -            V (approve)   V (reject)
		// APPROVED  V (reopen)   -             X
		// REJECTED  V (reopen)   X             -
		stateMachine = state.NewStateMachine(
			[]state.State{pending, approved, rejected},
			[]state.Transition{
				{Name: "approve", From: pending, To: approved},
				{Name: "reject", From: pending, To: rejected},
				{Name: "reopen", From: approved, To: pending},
				{Name: "reopen", From: rejected, To: pending},
			})
	})

	Describe("NewStateMachine", func() {
		It("should create new State Machine successfully", func() {
			Expect(stateMachine).NotTo(BeZero())
			Expect(stateMachine.States).Should(Equal([]state.State{pending, approved, rejected}))
			Expect(len(stateMachine.Transitions)).Should(Equal(4))
		})
	})

	Describe("AvailableTransitions", func() {
		It("should return available transitions as expected", func() {
			Ω(stateMachine.AvailableTransitions("PENDING", "")).Should(Equal([]state.Transition{
				{Name: "approve", From: pending, To: approved},
				{Name: "reject", From: pending, To: rejected},
			}))
			Ω(stateMachine.AvailableTransitions("APPROVED", "")).Should(Equal([]state.Transition{
				{Name: "reopen", From: approved, To: pending},
			}))
			Ω(stateMachine.AvailableTransitions("", "PENDING")).Should(Equal([]state.Transition{
				{Name: "reopen", From: approved, To: pending},
				{Name: "reopen", From: rejected, To: pending},
			}))
			Ω(stateMachine.AvailableTransitions("APPROVED", "REJECTED")).Should(BeEmpty())
			Ω(stateMachine.AvailableTransitions("UNKNOWN", "")).Should(BeEmpty())
		})
	})

	Describe("Fire", func() {
		It("should find transition by action", func() {
			t, ok := stateMachine.Fire("PENDING", "approve")
			Expect(ok).To(BeTrue())
			Expect(t.To).To(Equal(approved))

			t, ok = stateMachine.Fire("REJECTED", "reopen")
			Expect(ok).To(BeTrue())
			Expect(t.To).To(Equal(pending))

			t, ok = stateMachine.Fire("APPROVED", "approve")
			Expect(ok).To(BeFalse())
			Expect(t).To(BeNil())
		})
	})

	Describe("State", func() {
		It("should find state by name", func() {
			s, ok := stateMachine.State("REJECTED")
			Expect(ok).To(BeTrue())
			Expect(s.Terminal).To(BeTrue())
			_, ok = stateMachine.State("DONE")
			Expect(ok).To(BeFalse())
		})
	})
})
