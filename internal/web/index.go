package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Black-Scholes Option Pricer</title>
<style>
  body { font-family: sans-serif; max-width: 28rem; margin: 3rem auto; }
  label { display: block; margin-top: .75rem; }
  input { width: 100%; padding: .3rem; }
  button { margin-top: 1rem; padding: .4rem 1rem; }
  #result { margin-top: 1.5rem; font-weight: bold; }
  .error { color: #b00020; }
</style>
</head>
<body>
<h1>Black-Scholes Option Pricer</h1>
<form id="form">
  <label>Stock price (S) <input name="S" type="number" step="any" required></label>
  <label>Strike price (K) <input name="K" type="number" step="any" required></label>
  <label>Time to maturity, years (T) <input name="T" type="number" step="any" required></label>
  <label>Risk-free rate (r) <input name="r" type="number" step="any" required></label>
  <label>Volatility (sigma) <input name="sigma" type="number" step="any" required></label>
  <button type="submit">Calculate</button>
</form>
<div id="result"></div>
<script>
document.getElementById("form").addEventListener("submit", async (e) => {
  e.preventDefault();
  const body = {};
  for (const [k, v] of new FormData(e.target)) body[k] = parseFloat(v);
  const out = document.getElementById("result");
  const res = await fetch("/api/calculate", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify(body),
  });
  const data = await res.json();
  if (!res.ok) {
    out.className = "error";
    out.textContent = data.error;
    return;
  }
  out.className = "";
  out.textContent = "Call: " + data.call_price + "  Put: " + data.put_price;
});
</script>
</body>
</html>
`
