package stubapp

// formPage mirrors the markup of the card delivery application: every field
// root carries a data-test-id, inline errors live in .input__sub and an
// invalid field root gets the input_invalid class.
const formPage = `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>{{ title }}</title>
<style>
  .input__sub { display: block; min-height: 1em; color: #c00; }
  .input_invalid .checkbox__text { color: #c00; }
  .notification[hidden] { display: none; }
</style>
</head>
<body>
<form id="booking" novalidate>
  <span class="input" data-test-id="city">
    <input type="text" name="city" placeholder="Город" autocomplete="off">
    <span class="input__sub"></span>
  </span>
  <span class="input" data-test-id="date">
    <input type="text" name="date" placeholder="Дата встречи" value="{{ default_date }}">
    <span class="input__sub"></span>
  </span>
  <span class="input" data-test-id="name">
    <input type="text" name="name" placeholder="Фамилия и имя">
    <span class="input__sub"></span>
  </span>
  <span class="input" data-test-id="phone">
    <input type="tel" name="phone" placeholder="Мобильный телефон">
    <span class="input__sub"></span>
  </span>
  <span class="checkbox" data-test-id="agreement">
    <input type="checkbox" name="agreement" hidden>
    <span class="checkbox__box" role="checkbox" aria-checked="false"></span>
    <span class="checkbox__text">Я соглашаюсь с условиями обработки и использования моих персональных данных</span>
  </span>
  <button type="button" class="button">{{ submit_label }}</button>
</form>
<div class="notification" data-test-id="notification" hidden>
  <div class="notification__title">Успешно!</div>
  <div class="notification__content"></div>
</div>
<script>
(function () {
  var form = document.getElementById("booking");
  var box = form.querySelector("[data-test-id='agreement'] .checkbox__box");
  var agreement = form.querySelector("input[name='agreement']");
  box.addEventListener("click", function () {
    agreement.checked = !agreement.checked;
    box.setAttribute("aria-checked", String(agreement.checked));
  });
  function reset() {
    form.querySelectorAll("[data-test-id]").forEach(function (el) {
      el.classList.remove("input_invalid");
      var sub = el.querySelector(".input__sub");
      if (sub) sub.textContent = "";
    });
  }
  form.querySelector("button").addEventListener("click", function () {
    reset();
    var payload = {
      city: form.elements["city"].value,
      date: form.elements["date"].value,
      name: form.elements["name"].value,
      phone: form.elements["phone"].value,
      agreement: agreement.checked
    };
    fetch("{{ api_path }}", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify(payload)
    }).then(function (resp) {
      return resp.json().then(function (body) { return {ok: resp.ok, body: body}; });
    }).then(function (r) {
      if (!r.ok) {
        var root = form.querySelector("[data-test-id='" + r.body.field + "']");
        root.classList.add("input_invalid");
        var sub = root.querySelector(".input__sub");
        if (sub) sub.textContent = r.body.message;
        return;
      }
      var note = document.querySelector("[data-test-id='notification']");
      note.querySelector(".notification__content").textContent = r.body.message;
      note.hidden = false;
    });
  });
})();
</script>
</body>
</html>
`
