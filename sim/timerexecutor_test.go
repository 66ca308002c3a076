package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimerExecutor", func() {
	var (
		executor *TimerExecutor
		fired    []string
	)

	record := func(arg any) {
		fired = append(fired, arg.(string))
	}

	BeforeEach(func() {
		executor = NewTimerExecutor()
		fired = nil
	})

	It("should fire requests in timestamp order", func() {
		s1 := new(Scheduling)
		s2 := new(Scheduling)
		s3 := new(Scheduling)

		executor.Submit(s1, 3.0, MakeAction(record, "c"))
		executor.Submit(s2, 1.0, MakeAction(record, "a"))
		executor.Submit(s3, 2.0, MakeAction(record, "b"))

		n := executor.RunUntil(5.0)

		Expect(n).To(Equal(3))
		Expect(fired).To(Equal([]string{"a", "b", "c"}))
	})

	It("should fire same-time requests in submission order", func() {
		s1 := new(Scheduling)
		s2 := new(Scheduling)

		executor.Submit(s1, 1.0, MakeAction(record, "on"))
		executor.Submit(s2, 1.0, MakeAction(record, "off"))

		executor.RunUntil(1.0)

		Expect(fired).To(Equal([]string{"on", "off"}))
	})

	It("should not fire requests past the run limit", func() {
		s1 := new(Scheduling)
		s2 := new(Scheduling)

		executor.Submit(s1, 1.0, MakeAction(record, "a"))
		executor.Submit(s2, 10.0, MakeAction(record, "b"))

		n := executor.RunUntil(5.0)

		Expect(n).To(Equal(1))
		Expect(fired).To(Equal([]string{"a"}))
		Expect(executor.Len()).To(Equal(1))
		Expect(executor.CurrentTime()).To(BeNumerically("==", 5.0))
	})

	It("should replace a live request on re-submit", func() {
		s := new(Scheduling)

		executor.Submit(s, 1.0, MakeAction(record, "early"))
		executor.Submit(s, 2.0, MakeAction(record, "late"))

		executor.RunUntil(5.0)

		Expect(fired).To(Equal([]string{"late"}))
	})

	It("should cancel a live request", func() {
		s := new(Scheduling)

		executor.Submit(s, 1.0, MakeAction(record, "a"))
		executor.Cancel(s)

		n := executor.RunUntil(5.0)

		Expect(n).To(Equal(0))
		Expect(fired).To(BeEmpty())
	})

	It("should tolerate cancel on a handle with no live request", func() {
		s := new(Scheduling)

		executor.Cancel(s)

		Expect(executor.Len()).To(Equal(0))
	})

	It("should allow re-arming a canceled handle", func() {
		s := new(Scheduling)

		executor.Submit(s, 1.0, MakeAction(record, "provisional"))
		executor.Cancel(s)
		executor.Submit(s, 2.0, MakeAction(record, "precise"))

		executor.RunUntil(5.0)

		Expect(fired).To(Equal([]string{"precise"}))
	})

	It("should advance the clock to each firing time", func() {
		s := new(Scheduling)
		var seen VTimeInSec

		executor.Submit(s, 2.5, Action{
			Func: func(any) { seen = executor.CurrentTime() },
		})

		executor.RunUntil(5.0)

		Expect(seen).To(BeNumerically("==", 2.5))
	})
})
