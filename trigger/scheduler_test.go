package trigger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rotorlab/trigsched/sim"
)

var _ = Describe("Scheduler", func() {
	var (
		executor  *MockExecutor
		scheduler *Scheduler
	)

	noAction := sim.Action{}

	BeforeEach(func() {
		executor = NewMockExecutor()
		scheduler = NewScheduler(executor, sim.FourStrokeCycle)
	})

	It("should queue when no recent edge is known", func() {
		event := &ToothEvent{TriggerIndex: 5}

		scheduledNow := scheduler.ScheduleOrQueue(event, 6000,
			TriggerIndexUndefined, 0, 0, 0, 0, noAction)

		Expect(scheduledNow).To(BeFalse())
		Expect(scheduler.QueueLen()).To(Equal(1))
		Expect(executor.submissions).To(BeEmpty())
	})

	It("should convert immediately on the anchor tooth", func() {
		event := &ToothEvent{TriggerIndex: 5, AngleOffset: 12}

		scheduledNow := scheduler.ScheduleOrQueue(event, 6000,
			5, 1.0, 0, 0, 0, noAction)

		Expect(scheduledNow).To(BeTrue())
		Expect(scheduler.QueueLen()).To(Equal(0))
		Expect(executor.submissions).To(HaveLen(1))
		// 12 degrees at 6000 RPM.
		Expect(executor.submissions[0].when).
			To(BeNumerically("~", 1.0+12.0/36000.0, 1e-12))
	})

	It("should queue on a non-matching tooth", func() {
		event := &ToothEvent{TriggerIndex: 5}

		scheduledNow := scheduler.ScheduleOrQueue(event, 6000,
			3, 1.0, 0, 0, 0, noAction)

		Expect(scheduledNow).To(BeFalse())
		Expect(scheduler.QueueLen()).To(Equal(1))
	})

	It("should convert a phase event due in the current window", func() {
		event := &PhaseEvent{}

		scheduledNow := scheduler.ScheduleOrQueue(event, 6000,
			8, 2.0, 100, 96, 108, noAction)

		Expect(scheduledNow).To(BeTrue())
		Expect(executor.submissions).To(HaveLen(1))
		// 4 degrees remain from phase 96 to target 100.
		Expect(executor.submissions[0].when).
			To(BeNumerically("~", 2.0+4.0/36000.0, 1e-12))
	})

	It("should record the target angle into the phase event", func() {
		event := &PhaseEvent{}

		scheduler.ScheduleOrQueue(event, 6000,
			TriggerIndexUndefined, 0, 730, 0, 0, noAction)

		Expect(event.EnginePhase).To(BeNumerically("==", 10))
	})

	Context("when advancing to the next tooth", func() {
		It("should fire the event anchored to the entered tooth", func() {
			event := &ToothEvent{TriggerIndex: 5, AngleOffset: 6}
			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			scheduler.OnTriggerTooth(6000, 5, 3.0, 60, 72)

			Expect(scheduler.QueueLen()).To(Equal(0))
			Expect(executor.submissions).To(HaveLen(1))
			Expect(executor.submissions[0].when).
				To(BeNumerically("~", 3.0+6.0/36000.0, 1e-12))
		})

		It("should not fire on neighboring teeth", func() {
			event := &ToothEvent{TriggerIndex: 5}
			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			scheduler.OnTriggerTooth(6000, 4, 1.0, 48, 60)
			scheduler.OnTriggerTooth(6000, 6, 2.0, 72, 84)

			Expect(scheduler.QueueLen()).To(Equal(1))
			Expect(executor.submissions).To(BeEmpty())
		})

		It("should fire a phase event in a wrapping window", func() {
			event := &PhaseEvent{}
			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 5, 0, 0, noAction)

			scheduler.OnTriggerTooth(6000, 58, 4.0, 700, 10)

			Expect(scheduler.QueueLen()).To(Equal(0))
			Expect(executor.submissions).To(HaveLen(1))
			// 25 degrees remain from phase 700 to target 5.
			Expect(executor.submissions[0].when).
				To(BeNumerically("~", 4.0+25.0/36000.0, 1e-12))
		})

		It("should do nothing on an invalid RPM", func() {
			e1 := &ToothEvent{TriggerIndex: 5}
			e2 := &ToothEvent{TriggerIndex: 6}
			scheduler.ScheduleOrQueue(e1, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(e2, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			scheduler.OnTriggerTooth(0, 5, 1.0, 60, 72)

			Expect(executor.submissions).To(BeEmpty())
			Expect(executor.cancels).To(BeEmpty())
			Expect(scheduler.QueueLen()).To(Equal(2))
			Expect(scheduler.EventAt(0)).To(BeIdenticalTo(e1))
			Expect(scheduler.EventAt(1)).To(BeIdenticalTo(e2))
		})

		It("should arm same-edge events in submission order", func() {
			on := &ToothEvent{TriggerIndex: 5, AngleOffset: 2}
			off := &ToothEvent{TriggerIndex: 5, AngleOffset: 2}
			scheduler.ScheduleOrQueue(on, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(off, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			scheduler.OnTriggerTooth(6000, 5, 1.0, 60, 72)

			Expect(executor.submissions).To(HaveLen(2))
			Expect(executor.submissions[0].handle).
				To(BeIdenticalTo(on.Scheduling()))
			Expect(executor.submissions[1].handle).
				To(BeIdenticalTo(off.Scheduling()))
		})

		It("should cancel a provisional request before re-arming", func() {
			event := &ToothEvent{TriggerIndex: 5}
			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			scheduler.OnTriggerTooth(6000, 5, 1.0, 60, 72)

			Expect(executor.cancels).To(HaveLen(1))
			Expect(executor.cancels[0]).
				To(BeIdenticalTo(event.Scheduling()))
		})

		It("should retain events queued during the scan, after the "+
			"events retained from before it", func() {
			due := &ToothEvent{TriggerIndex: 5}
			kept := &ToothEvent{TriggerIndex: 9}
			late := &ToothEvent{TriggerIndex: 10}

			scheduler.ScheduleOrQueue(due, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(kept, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			executor.onSubmit = func() {
				executor.onSubmit = nil
				scheduler.ScheduleOrQueue(late, 6000,
					TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			}

			scheduler.OnTriggerTooth(6000, 5, 1.0, 60, 72)

			Expect(scheduler.QueueLen()).To(Equal(2))
			Expect(scheduler.EventAt(0)).To(BeIdenticalTo(kept))
			Expect(scheduler.EventAt(1)).To(BeIdenticalTo(late))
		})
	})

	Context("when an event is scheduled twice", func() {
		It("should refuse the duplicate insertion", func() {
			event := &ToothEvent{TriggerIndex: 5}

			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduledNow := scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			Expect(scheduledNow).To(BeFalse())
			Expect(scheduler.QueueLen()).To(Equal(1))
			Expect(scheduler.ReuseCount()).To(Equal(uint64(1)))
		})

		It("should keep the event's queue position", func() {
			e1 := &ToothEvent{TriggerIndex: 5}
			e2 := &ToothEvent{TriggerIndex: 6}

			scheduler.ScheduleOrQueue(e1, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(e2, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(e1, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			Expect(scheduler.QueueLen()).To(Equal(2))
			Expect(scheduler.EventAt(0)).To(BeIdenticalTo(e1))
			Expect(scheduler.EventAt(1)).To(BeIdenticalTo(e2))
		})

		It("should report the refusal through the reuse hook", func() {
			hook := &countingHook{pos: HookPosEventReuse}
			scheduler.AcceptHook(hook)
			event := &ToothEvent{TriggerIndex: 5}

			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			Expect(hook.count).To(Equal(1))
		})

		It("should panic in strict mode", func() {
			scheduler.WithStrictMembership()
			event := &ToothEvent{TriggerIndex: 5}

			scheduler.ScheduleOrQueue(event, 6000,
				TriggerIndexUndefined, 0, 0, 0, 0, noAction)

			Expect(func() {
				scheduler.ScheduleOrQueue(event, 6000,
					TriggerIndexUndefined, 0, 0, 0, 0, noAction)
			}).To(Panic())
		})
	})

	It("should run the spark example end to end", func() {
		sparkFired := false
		fireSpark := sim.MakeAction(func(any) { sparkFired = true }, nil)
		e1 := &ToothEvent{TriggerIndex: 5, AngleOffset: 3}

		scheduledNow := scheduler.ScheduleOrQueue(e1, 6000,
			TriggerIndexUndefined, 0, 0, 0, 0, fireSpark)
		Expect(scheduledNow).To(BeFalse())

		scheduler.OnTriggerTooth(6000, 5, 1.0, 60, 72)
		Expect(scheduler.QueueLen()).To(Equal(0))
		Expect(executor.submissions).To(HaveLen(1))

		executor.submissions[0].action.Invoke()
		Expect(sparkFired).To(BeTrue())

		scheduledNow = scheduler.ScheduleOrQueue(e1, 6000,
			5, 2.0, 0, 60, 72, fireSpark)
		Expect(scheduledNow).To(BeTrue())
		Expect(scheduler.QueueLen()).To(Equal(0))
	})
})

type countingHook struct {
	pos   *sim.HookPos
	count int
}

func (h *countingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == h.pos {
		h.count++
	}
}
