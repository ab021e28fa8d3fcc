package vm_test

import (
	"bytes"
	"errors"
	"io"
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"umjunsik/pkg/ir"
	"umjunsik/pkg/vm"
)

func mustParse(body string) *ir.Function {
	fn, err := ir.Parse("fn @main() -> i64 {\n" + body + "\n}\n")
	Expect(err).NotTo(HaveOccurred())
	return fn
}

var _ = Describe("VM", func() {
	var (
		mockCtrl    *gomock.Controller
		mockConsole *MockConsole
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockConsole = NewMockConsole(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("Arithmetic", func() {
		It("should evaluate add, sub and mul", func() {
			fn := mustParse(`
  entry:
    %t0 = add.i64 2, 3
    %t1 = mul.i64 %t0, 4
    %t2 = sub.i64 %t1, 25
    ret.i64 %t2`)

			m := vm.New(fn, mockConsole)
			ret, err := m.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(-5)))
			Expect(m.Halted).To(BeTrue())
			Expect(m.Steps).To(Equal(4))
		})

		It("should produce 1 or 0 from eq.i64", func() {
			fn := mustParse(`
  entry:
    %t0 = eq.i64 7, 7
    %t1 = eq.i64 7, 8
    %t2 = mul.i64 %t0, 10
    %t3 = add.i64 %t2, %t1
    ret.i64 %t3`)

			ret, err := vm.New(fn, mockConsole).Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(10)))
		})
	})

	Context("Memory", func() {
		It("should keep each stack cell separate", func() {
			fn := mustParse(`
  entry:
    %a = alloc.ptr.stack i64
    %b = alloc.ptr.stack i64
    store.i64 %a, 11
    store.i64 %b, 31
    %t0 = load.i64 %a
    %t1 = load.i64 %b
    %t2 = add.i64 %t0, %t1
    ret.i64 %t2`)

			ret, err := vm.New(fn, mockConsole).Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(42)))
		})
	})

	Context("Control flow", func() {
		It("should take the first target of br on non-zero", func() {
			fn := mustParse(`
  entry:
    br 5, yes, no

  yes:
    ret.i64 1

  no:
    ret.i64 2`)

			ret, err := vm.New(fn, mockConsole).Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(1)))
		})

		It("should take the second target of br on zero", func() {
			fn := mustParse(`
  entry:
    br 0, yes, no

  yes:
    ret.i64 1

  no:
    ret.i64 2`)

			ret, err := vm.New(fn, mockConsole).Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(2)))
		})

		It("should count down a loop", func() {
			fn := mustParse(`
  entry:
    %i = alloc.ptr.stack i64
    store.i64 %i, 3
    jmp loop

  loop:
    %t0 = load.i64 %i
    %t1 = sub.i64 %t0, 1
    store.i64 %i, %t1
    %t2 = eq.i64 %t1, 0
    br %t2, done, loop

  done:
    %t3 = load.i64 %i
    ret.i64 %t3`)

			m := vm.New(fn, mockConsole)
			ret, err := m.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64(0)))
			Expect(m.Steps).To(Equal(3 + 3*5 + 2))
		})

		It("should stop at the step limit", func() {
			fn := mustParse(`
  entry:
    jmp entry`)

			m := vm.NewWithConfig(fn, mockConsole, vm.Config{MaxSteps: 100})
			_, err := m.Run()

			Expect(err).To(MatchError(vm.ErrStepLimit))
			Expect(m.Steps).To(Equal(100))
		})

		It("should execute one instruction per Step", func() {
			fn := mustParse(`
  entry:
    %t0 = add.i64 1, 0
    ret.i64 %t0`)

			m := vm.New(fn, mockConsole)
			Expect(m.Step()).To(Succeed())
			Expect(m.Halted).To(BeFalse())
			Expect(m.Step()).To(Succeed())
			Expect(m.Halted).To(BeTrue())
			Expect(m.ExitValue).To(Equal(int64(1)))

			Expect(m.Step()).To(Succeed())
			Expect(m.Steps).To(Equal(2))
		})

		It("should report a value whose definition was skipped", func() {
			fn := mustParse(`
  entry:
    br 0, set, use

  set:
    %t0 = add.i64 1, 0
    jmp use

  use:
    ret.i64 %t0`)

			_, err := vm.New(fn, mockConsole).Run()

			var rtErr *vm.RuntimeError
			Expect(errors.As(err, &rtErr)).To(BeTrue())
			Expect(rtErr.Block).To(Equal("use"))
			Expect(rtErr.Msg).To(ContainSubstring("%t0 is undefined"))
		})
	})

	Context("Console", func() {
		It("should print decimal digits without a newline", func() {
			fn := mustParse(`
  entry:
    %t0 = sub.i64 0, 205
    print %t0
    ret.i64 0`)

			gomock.InOrder(
				mockConsole.EXPECT().WriteByte(byte('-')),
				mockConsole.EXPECT().WriteByte(byte('2')),
				mockConsole.EXPECT().WriteByte(byte('0')),
				mockConsole.EXPECT().WriteByte(byte('5')),
			)

			_, err := vm.New(fn, mockConsole).Run()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should write the low byte with writebyte", func() {
			fn := mustParse(`
  entry:
    writebyte 321
    ret.i64 0`)

			mockConsole.EXPECT().WriteByte(byte(65))

			_, err := vm.New(fn, mockConsole).Run()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should read -1 at end of input", func() {
			fn := mustParse(`
  entry:
    %t0 = readbyte
    %t1 = readbyte
    %t2 = add.i64 %t0, %t1
    ret.i64 %t2`)

			gomock.InOrder(
				mockConsole.EXPECT().ReadByte().Return(byte('7'), nil),
				mockConsole.EXPECT().ReadByte().Return(byte(0), io.EOF),
			)

			ret, err := vm.New(fn, mockConsole).Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(ret).To(Equal(int64('7' - 1)))
		})

		It("should fail on a read error", func() {
			fn := mustParse(`
  entry:
    %t0 = readbyte
    ret.i64 %t0`)

			mockConsole.EXPECT().ReadByte().Return(byte(0), errors.New("device gone"))

			m := vm.New(fn, mockConsole)
			_, err := m.Run()

			var rtErr *vm.RuntimeError
			Expect(errors.As(err, &rtErr)).To(BeTrue())
			Expect(rtErr.Msg).To(ContainSubstring("device gone"))
			Expect(rtErr.Line).To(Equal(4))
			Expect(m.Halted).To(BeTrue())
		})

		It("should fail on a write error", func() {
			fn := mustParse(`
  entry:
    print 9
    ret.i64 0`)

			mockConsole.EXPECT().WriteByte(byte('9')).Return(errors.New("closed"))

			_, err := vm.New(fn, mockConsole).Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("write failed: closed"))
		})
	})
})

var _ = Describe("StreamConsole", func() {
	It("should read bytes then io.EOF", func() {
		c := vm.NewStreamConsole(strings.NewReader("ab"), nil)

		b, err := c.ReadByte()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte('a')))

		b, err = c.ReadByte()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte('b')))

		_, err = c.ReadByte()
		Expect(err).To(MatchError(io.EOF))
	})

	It("should treat a nil reader as empty input", func() {
		c := vm.NewStreamConsole(nil, nil)
		_, err := c.ReadByte()
		Expect(err).To(MatchError(io.EOF))
		Expect(c.WriteByte('x')).To(Succeed())
	})

	It("should drive a whole program", func() {
		fn := mustParse(`
  entry:
    %t0 = readbyte
    writebyte %t0
    print 12
    writebyte 10
    ret.i64 3`)

		var out bytes.Buffer
		ret, err := vm.New(fn, vm.NewStreamConsole(strings.NewReader("Z"), &out)).Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(ret).To(Equal(int64(3)))
		Expect(out.String()).To(Equal("Z12\n"))
	})
})
