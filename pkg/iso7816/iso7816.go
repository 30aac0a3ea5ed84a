/*
Package iso7816 implements the APDU layer used to talk to a card through a
PC/SC reader, according to the ISO/IEC 7816 standard.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# Usage Example

	apdu, err := iso7816.ParseCommandAPDU(raw)
	if err != nil {
	    return err
	}

	trace, err := iso7816.NewClient(card).Send(apdu)
	if err != nil {
	    return err
	}

	fmt.Println(trace.Describe())
	fmt.Println(trace.Last().Response.Status.Verbose())
*/
package iso7816
